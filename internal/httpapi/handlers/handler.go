package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/comicstudio/backend/internal/comic"
	"github.com/comicstudio/backend/internal/config"
	"github.com/comicstudio/backend/internal/credits"
	"github.com/comicstudio/backend/internal/genjob"
	"github.com/comicstudio/backend/internal/httpapi/middleware"
	"github.com/comicstudio/backend/internal/store/redisstore"
)

type Handler struct {
	DB      *gorm.DB
	Cfg     config.Config
	Redis   *redisstore.Store
	Credits *credits.Service
	Jobs    *genjob.Service
	Comics  *comic.Service
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, creditSvc *credits.Service, jobSvc *genjob.Service, comicSvc *comic.Service) *Handler {
	return &Handler{
		DB:      db,
		Cfg:     cfg,
		Redis:   rds,
		Credits: creditSvc,
		Jobs:    jobSvc,
		Comics:  comicSvc,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(200, gin.H{"message": "pong"})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
