package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/comicstudio/backend/internal/ai"
	"github.com/comicstudio/backend/internal/common"
	"github.com/comicstudio/backend/internal/credits"
)

type generateReq struct {
	PanelID string             `json:"panel_id"`
	JobType string             `json:"job_type"`
	Input   ai.GenerationInput `json:"input" binding:"required"`
}

func (h *Handler) CreateGenerationJob(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request body")
		return
	}

	if h.Redis != nil {
		allowed, err := h.Redis.AllowGenerate(c.Request.Context(), uid, h.Cfg.GenerateRateLimit, h.Cfg.GenerateRateWindow)
		if err != nil {
			// rate limiting is advisory; an unreachable redis must not take
			// generation down with it
			slog.Warn("rate limit check failed", "user_id", uid, "error", err)
		} else if !allowed {
			common.Fail(c, http.StatusTooManyRequests, 42901, "generation rate limit exceeded")
			return
		}
	}

	var panelID *string
	if req.PanelID != "" {
		if err := h.Comics.VerifyPanelOwner(c.Request.Context(), uid, req.PanelID); err != nil {
			common.Fail(c, http.StatusNotFound, 40403, "panel not found")
			return
		}
		panelID = &req.PanelID
	}

	job, err := h.Jobs.Create(c.Request.Context(), uid, req.JobType, req.Input, panelID)
	if err != nil {
		if errors.Is(err, credits.ErrInsufficientCredits) {
			common.Fail(c, http.StatusPaymentRequired, 40201, "insufficient credits")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create job")
		return
	}

	common.Created(c, gin.H{"job": job})
}

func (h *Handler) GetGenerationJob(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	jobID := c.Param("job_id")

	j, err := h.Jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if j.UserID != uid {
		// hide existence
		common.Fail(c, http.StatusNotFound, 40402, "job not found")
		return
	}

	common.OK(c, gin.H{"job": j})
}

func (h *Handler) CancelGenerationJob(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	jobID := c.Param("job_id")

	j, err := h.Jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if j.UserID != uid {
		common.Fail(c, http.StatusNotFound, 40402, "job not found")
		return
	}

	j, err = h.Jobs.Cancel(c.Request.Context(), jobID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to cancel job")
		return
	}

	common.OK(c, gin.H{"job": j})
}
