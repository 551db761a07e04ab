package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/comicstudio/backend/internal/comic"
	"github.com/comicstudio/backend/internal/common"
	"github.com/comicstudio/backend/internal/config"
	"github.com/comicstudio/backend/internal/credits"
	"github.com/comicstudio/backend/internal/genjob"
	"github.com/comicstudio/backend/internal/httpapi/handlers"
	"github.com/comicstudio/backend/internal/httpapi/middleware"
	"github.com/comicstudio/backend/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, creditSvc *credits.Service, jobSvc *genjob.Service, comicSvc *comic.Service) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, rds, creditSvc, jobSvc, comicSvc)

	r.GET("/ping", h.Ping)

	// auth
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/users/:id", h.GetUserByID)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))

	authGroup.GET("/me", h.Me)

	// credits
	authGroup.GET("/credits", h.GetCredits)
	authGroup.GET("/credits/transactions", h.ListCreditTransactions)
	authGroup.POST("/credits/purchase", h.PurchaseCredits)

	// AI generation jobs
	authGroup.POST("/ai/generate", h.CreateGenerationJob)
	authGroup.GET("/ai/jobs/:job_id", h.GetGenerationJob)
	authGroup.POST("/ai/jobs/:job_id/cancel", h.CancelGenerationJob)

	// comic entities
	authGroup.POST("/series", h.CreateSeries)
	authGroup.GET("/series", h.ListSeries)
	authGroup.GET("/series/:series_id", h.GetSeries)
	authGroup.PUT("/series/:series_id", h.UpdateSeries)
	authGroup.DELETE("/series/:series_id", h.DeleteSeries)
	authGroup.GET("/series/:series_id/episodes", h.ListEpisodes)

	authGroup.POST("/episodes", h.CreateEpisode)
	authGroup.GET("/episodes/:episode_id", h.GetEpisode)
	authGroup.POST("/episodes/:episode_id/publish", h.PublishEpisode)
	authGroup.DELETE("/episodes/:episode_id", h.DeleteEpisode)
	authGroup.GET("/episodes/:episode_id/pages", h.ListPages)

	authGroup.POST("/pages", h.CreatePage)
	authGroup.GET("/pages/:page_id/panels", h.ListPanels)

	authGroup.POST("/panels", h.CreatePanel)
	authGroup.GET("/panels/:panel_id", h.GetPanel)
	authGroup.PUT("/panels/:panel_id", h.UpdatePanel)
	authGroup.DELETE("/panels/:panel_id", h.DeletePanel)
	authGroup.GET("/panels/:panel_id/texts", h.ListTexts)

	authGroup.POST("/texts", h.CreateText)
	authGroup.PUT("/texts/:text_id", h.UpdateText)
	authGroup.DELETE("/texts/:text_id", h.DeleteText)

	return r
}
