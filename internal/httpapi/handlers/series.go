package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/comicstudio/backend/internal/comic"
	"github.com/comicstudio/backend/internal/common"
)

type seriesReq struct {
	Title       string          `json:"title" binding:"required,max=255"`
	Description string          `json:"description"`
	Genre       string          `json:"genre"`
	ArtStyle    json.RawMessage `json:"art_style"`
	IsPublic    bool            `json:"is_public"`
}

func (h *Handler) CreateSeries(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req seriesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request body")
		return
	}

	sr, err := h.Comics.CreateSeries(c.Request.Context(), uid, &comic.Series{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		ArtStyle:    req.ArtStyle,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.Created(c, sr)
}

func (h *Handler) ListSeries(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	out, err := h.Comics.ListSeries(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"series": out})
}

func (h *Handler) GetSeries(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	sr, err := h.Comics.GetSeries(c.Request.Context(), uid, c.Param("series_id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40404, "series not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, sr)
}

func (h *Handler) UpdateSeries(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req seriesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request body")
		return
	}

	sr := &comic.Series{
		SeriesID:    c.Param("series_id"),
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		ArtStyle:    req.ArtStyle,
		IsPublic:    req.IsPublic,
	}
	if err := h.Comics.UpdateSeries(c.Request.Context(), uid, sr); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40404, "series not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, sr)
}

func (h *Handler) DeleteSeries(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	if err := h.Comics.DeleteSeries(c.Request.Context(), uid, c.Param("series_id")); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40404, "series not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"message": "series deleted"})
}
