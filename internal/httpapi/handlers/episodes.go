package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/comicstudio/backend/internal/comic"
	"github.com/comicstudio/backend/internal/common"
)

type episodeReq struct {
	SeriesID      string `json:"series_id" binding:"required"`
	EpisodeNumber int    `json:"episode_number" binding:"required,gt=0"`
	Title         string `json:"title" binding:"required,max=255"`
	Description   string `json:"description"`
	Script        string `json:"script"`
}

func (h *Handler) CreateEpisode(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req episodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request body")
		return
	}

	e, err := h.Comics.CreateEpisode(c.Request.Context(), uid, &comic.Episode{
		SeriesID:      req.SeriesID,
		EpisodeNumber: req.EpisodeNumber,
		Title:         req.Title,
		Description:   req.Description,
		Script:        req.Script,
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40404, "series not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.Created(c, e)
}

func (h *Handler) ListEpisodes(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	out, err := h.Comics.ListEpisodes(c.Request.Context(), uid, c.Param("series_id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40404, "series not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"episodes": out})
}

func (h *Handler) GetEpisode(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	e, err := h.Comics.GetEpisode(c.Request.Context(), uid, c.Param("episode_id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40405, "episode not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, e)
}

func (h *Handler) PublishEpisode(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	e, err := h.Comics.PublishEpisode(c.Request.Context(), uid, c.Param("episode_id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40405, "episode not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, e)
}

func (h *Handler) DeleteEpisode(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	if err := h.Comics.DeleteEpisode(c.Request.Context(), uid, c.Param("episode_id")); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40405, "episode not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"message": "episode deleted"})
}

type pageReq struct {
	EpisodeID  string          `json:"episode_id" binding:"required"`
	PageNumber int             `json:"page_number" binding:"required,gt=0"`
	LayoutType string          `json:"layout_type"`
	LayoutData json.RawMessage `json:"layout_data"`
}

func (h *Handler) CreatePage(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req pageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request body")
		return
	}

	p, err := h.Comics.CreatePage(c.Request.Context(), uid, &comic.Page{
		EpisodeID:  req.EpisodeID,
		PageNumber: req.PageNumber,
		LayoutType: req.LayoutType,
		LayoutData: req.LayoutData,
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40405, "episode not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.Created(c, p)
}

func (h *Handler) ListPages(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	out, err := h.Comics.ListPages(c.Request.Context(), uid, c.Param("episode_id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40405, "episode not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"pages": out})
}
