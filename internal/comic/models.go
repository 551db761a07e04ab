package comic

import (
	"encoding/json"
	"time"
)

const (
	SeriesDraft     = "draft"
	SeriesOngoing   = "ongoing"
	SeriesCompleted = "completed"

	EpisodeDraft     = "draft"
	EpisodePublished = "published"

	PanelStandard = "standard"
	PanelSplash   = "splash"
	PanelInset    = "inset"

	TextDialogue  = "dialogue"
	TextNarration = "narration"
	TextSFX       = "sfx"
	TextThought   = "thought"
)

type Series struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	SeriesID      string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"series_id"`
	UserID        uint64          `gorm:"index;not null" json:"-"`
	Title         string          `gorm:"type:varchar(255);not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	Genre         string          `gorm:"type:varchar(100)" json:"genre"`
	ArtStyle      json.RawMessage `gorm:"type:json" json:"art_style,omitempty"`
	Status        string          `gorm:"type:varchar(20);not null;default:draft" json:"status"`
	CoverImageURL string          `gorm:"type:text" json:"cover_image_url"`
	IsPublic      bool            `gorm:"not null;default:false" json:"is_public"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Series) TableName() string { return "series" }

type Episode struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	EpisodeID     string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"episode_id"`
	SeriesID      string     `gorm:"type:varchar(36);index;not null" json:"series_id"`
	EpisodeNumber int        `gorm:"not null" json:"episode_number"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Script        string     `gorm:"type:text" json:"script"`
	Status        string     `gorm:"type:varchar(20);not null;default:draft" json:"status"`
	ThumbnailURL  string     `gorm:"type:text" json:"thumbnail_url"`
	PageCount     int        `gorm:"not null;default:0" json:"page_count"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Episode) TableName() string { return "episodes" }

type Page struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	PageID     string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"page_id"`
	EpisodeID  string          `gorm:"type:varchar(36);index;not null" json:"episode_id"`
	PageNumber int             `gorm:"not null" json:"page_number"`
	LayoutType string          `gorm:"type:varchar(20);not null;default:traditional" json:"layout_type"`
	LayoutData json.RawMessage `gorm:"type:json" json:"layout_data,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Page) TableName() string { return "pages" }

type Panel struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	PanelID          string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"panel_id"`
	PageID           string          `gorm:"type:varchar(36);index;not null" json:"page_id"`
	PanelNumber      int             `gorm:"not null" json:"panel_number"`
	PanelType        string          `gorm:"type:varchar(20);not null;default:standard" json:"panel_type"`
	Position         json.RawMessage `gorm:"type:json" json:"position,omitempty"`
	ImageURL         string          `gorm:"type:text" json:"image_url"`
	ThumbnailURL     string          `gorm:"type:text" json:"thumbnail_url"`
	GenerationPrompt string          `gorm:"type:text" json:"generation_prompt"`
	GenerationConfig json.RawMessage `gorm:"type:json" json:"generation_config,omitempty"`
	ScriptText       string          `gorm:"type:text" json:"script_text"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Panel) TableName() string { return "panels" }

type TextElement struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	TextID    string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"text_id"`
	PanelID   string          `gorm:"type:varchar(36);index;not null" json:"panel_id"`
	TextType  string          `gorm:"type:varchar(20);not null;default:dialogue" json:"text_type"`
	Content   string          `gorm:"type:text;not null" json:"content"`
	Position  json.RawMessage `gorm:"type:json" json:"position,omitempty"`
	Style     json.RawMessage `gorm:"type:json" json:"style,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (TextElement) TableName() string { return "text_elements" }
