package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/comicstudio/backend/internal/comic"
	"github.com/comicstudio/backend/internal/common"
)

type panelReq struct {
	PageID           string          `json:"page_id" binding:"required"`
	PanelNumber      int             `json:"panel_number" binding:"required,gt=0"`
	PanelType        string          `json:"panel_type"`
	Position         json.RawMessage `json:"position"`
	GenerationConfig json.RawMessage `json:"generation_config"`
	ScriptText       string          `json:"script_text"`
}

func (h *Handler) CreatePanel(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req panelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request body")
		return
	}

	p, err := h.Comics.CreatePanel(c.Request.Context(), uid, &comic.Panel{
		PageID:           req.PageID,
		PanelNumber:      req.PanelNumber,
		PanelType:        req.PanelType,
		Position:         req.Position,
		GenerationConfig: req.GenerationConfig,
		ScriptText:       req.ScriptText,
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40406, "page not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.Created(c, p)
}

func (h *Handler) GetPanel(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	p, err := h.Comics.GetPanel(c.Request.Context(), uid, c.Param("panel_id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40403, "panel not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, p)
}

func (h *Handler) ListPanels(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	out, err := h.Comics.ListPanels(c.Request.Context(), uid, c.Param("page_id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40406, "page not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"panels": out})
}

func (h *Handler) UpdatePanel(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req panelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request body")
		return
	}

	p := &comic.Panel{
		PanelID:          c.Param("panel_id"),
		PanelNumber:      req.PanelNumber,
		PanelType:        req.PanelType,
		Position:         req.Position,
		GenerationConfig: req.GenerationConfig,
		ScriptText:       req.ScriptText,
	}
	if err := h.Comics.UpdatePanel(c.Request.Context(), uid, p); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40403, "panel not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, p)
}

func (h *Handler) DeletePanel(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	if err := h.Comics.DeletePanel(c.Request.Context(), uid, c.Param("panel_id")); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40403, "panel not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"message": "panel deleted"})
}

type textReq struct {
	PanelID  string          `json:"panel_id" binding:"required"`
	TextType string          `json:"text_type"`
	Content  string          `json:"content" binding:"required"`
	Position json.RawMessage `json:"position"`
	Style    json.RawMessage `json:"style"`
}

func (h *Handler) CreateText(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req textReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request body")
		return
	}

	t, err := h.Comics.CreateText(c.Request.Context(), uid, &comic.TextElement{
		PanelID:  req.PanelID,
		TextType: req.TextType,
		Content:  req.Content,
		Position: req.Position,
		Style:    req.Style,
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40403, "panel not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.Created(c, t)
}

func (h *Handler) ListTexts(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	out, err := h.Comics.ListTexts(c.Request.Context(), uid, c.Param("panel_id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40403, "panel not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"text_elements": out})
}

type textUpdateReq struct {
	TextType string          `json:"text_type"`
	Content  string          `json:"content" binding:"required"`
	Position json.RawMessage `json:"position"`
	Style    json.RawMessage `json:"style"`
}

func (h *Handler) UpdateText(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req textUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request body")
		return
	}

	t := &comic.TextElement{
		TextID:   c.Param("text_id"),
		TextType: req.TextType,
		Content:  req.Content,
		Position: req.Position,
		Style:    req.Style,
	}
	if err := h.Comics.UpdateText(c.Request.Context(), uid, t); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40407, "text element not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, t)
}

func (h *Handler) DeleteText(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	if err := h.Comics.DeleteText(c.Request.Context(), uid, c.Param("text_id")); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40407, "text element not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"message": "text element deleted"})
}
