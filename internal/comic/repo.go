package comic

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateSeries(ctx context.Context, s *Series) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetSeries(ctx context.Context, seriesID string) (*Series, error) {
	var s Series
	if err := r.db.WithContext(ctx).Where("series_id = ?", seriesID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) ListSeriesByUser(ctx context.Context, userID uint64) ([]Series, error) {
	var out []Series
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) SaveSeries(ctx context.Context, s *Series) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *Repo) DeleteSeries(ctx context.Context, seriesID string) error {
	return r.db.WithContext(ctx).Where("series_id = ?", seriesID).Delete(&Series{}).Error
}

func (r *Repo) CreateEpisode(ctx context.Context, e *Episode) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *Repo) GetEpisode(ctx context.Context, episodeID string) (*Episode, error) {
	var e Episode
	if err := r.db.WithContext(ctx).Where("episode_id = ?", episodeID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repo) ListEpisodes(ctx context.Context, seriesID string) ([]Episode, error) {
	var out []Episode
	if err := r.db.WithContext(ctx).
		Where("series_id = ?", seriesID).
		Order("episode_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) SaveEpisode(ctx context.Context, e *Episode) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *Repo) DeleteEpisode(ctx context.Context, episodeID string) error {
	return r.db.WithContext(ctx).Where("episode_id = ?", episodeID).Delete(&Episode{}).Error
}

func (r *Repo) CreatePage(ctx context.Context, p *Page) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repo) GetPage(ctx context.Context, pageID string) (*Page, error) {
	var p Page
	if err := r.db.WithContext(ctx).Where("page_id = ?", pageID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListPages(ctx context.Context, episodeID string) ([]Page, error) {
	var out []Page
	if err := r.db.WithContext(ctx).
		Where("episode_id = ?", episodeID).
		Order("page_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountPages(ctx context.Context, episodeID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Page{}).Where("episode_id = ?", episodeID).Count(&n).Error
	return n, err
}

func (r *Repo) CreatePanel(ctx context.Context, p *Panel) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repo) GetPanel(ctx context.Context, panelID string) (*Panel, error) {
	var p Panel
	if err := r.db.WithContext(ctx).Where("panel_id = ?", panelID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListPanels(ctx context.Context, pageID string) ([]Panel, error) {
	var out []Panel
	if err := r.db.WithContext(ctx).
		Where("page_id = ?", pageID).
		Order("panel_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) SavePanel(ctx context.Context, p *Panel) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *Repo) DeletePanel(ctx context.Context, panelID string) error {
	return r.db.WithContext(ctx).Where("panel_id = ?", panelID).Delete(&Panel{}).Error
}

// UpdatePanelImage patches only the generation output columns.
func (r *Repo) UpdatePanelImage(ctx context.Context, panelID, imageURL, thumbnailURL, prompt string) error {
	res := r.db.WithContext(ctx).Model(&Panel{}).
		Where("panel_id = ?", panelID).
		Updates(map[string]any{
			"image_url":         imageURL,
			"thumbnail_url":     thumbnailURL,
			"generation_prompt": prompt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) CreateText(ctx context.Context, t *TextElement) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repo) GetText(ctx context.Context, textID string) (*TextElement, error) {
	var t TextElement
	if err := r.db.WithContext(ctx).Where("text_id = ?", textID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) ListTexts(ctx context.Context, panelID string) ([]TextElement, error) {
	var out []TextElement
	if err := r.db.WithContext(ctx).
		Where("panel_id = ?", panelID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) SaveText(ctx context.Context, t *TextElement) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *Repo) DeleteText(ctx context.Context, textID string) error {
	return r.db.WithContext(ctx).Where("text_id = ?", textID).Delete(&TextElement{}).Error
}

// SeriesOwner resolves the owning user of a series.
func (r *Repo) SeriesOwner(ctx context.Context, seriesID string) (uint64, error) {
	var s Series
	if err := r.db.WithContext(ctx).Select("user_id").Where("series_id = ?", seriesID).First(&s).Error; err != nil {
		return 0, err
	}
	return s.UserID, nil
}

// PanelOwner walks panel -> page -> episode -> series to the owning user.
func (r *Repo) PanelOwner(ctx context.Context, panelID string) (uint64, error) {
	var s Series
	err := r.db.WithContext(ctx).
		Table("panels").
		Select("series.user_id").
		Joins("JOIN pages ON pages.page_id = panels.page_id").
		Joins("JOIN episodes ON episodes.episode_id = pages.episode_id").
		Joins("JOIN series ON series.series_id = episodes.series_id").
		Where("panels.panel_id = ?", panelID).
		First(&s).Error
	if err != nil {
		return 0, err
	}
	return s.UserID, nil
}
