package comic

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

// Ownership checks resolve to gorm.ErrRecordNotFound for resources that exist
// but belong to someone else, so existence is not leaked.

func (s *Service) CreateSeries(ctx context.Context, userID uint64, sr *Series) (*Series, error) {
	sr.SeriesID = uuid.New().String()
	sr.UserID = userID
	if sr.Status == "" {
		sr.Status = SeriesDraft
	}
	if err := s.repo.CreateSeries(ctx, sr); err != nil {
		return nil, err
	}
	return sr, nil
}

func (s *Service) GetSeries(ctx context.Context, userID uint64, seriesID string) (*Series, error) {
	sr, err := s.repo.GetSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if sr.UserID != userID && !sr.IsPublic {
		return nil, gorm.ErrRecordNotFound
	}
	return sr, nil
}

func (s *Service) ListSeries(ctx context.Context, userID uint64) ([]Series, error) {
	return s.repo.ListSeriesByUser(ctx, userID)
}

func (s *Service) UpdateSeries(ctx context.Context, userID uint64, sr *Series) error {
	cur, err := s.repo.GetSeries(ctx, sr.SeriesID)
	if err != nil {
		return err
	}
	if cur.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	sr.ID = cur.ID
	sr.UserID = cur.UserID
	sr.CreatedAt = cur.CreatedAt
	return s.repo.SaveSeries(ctx, sr)
}

func (s *Service) DeleteSeries(ctx context.Context, userID uint64, seriesID string) error {
	cur, err := s.repo.GetSeries(ctx, seriesID)
	if err != nil {
		return err
	}
	if cur.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	return s.repo.DeleteSeries(ctx, seriesID)
}

func (s *Service) requireSeriesOwner(ctx context.Context, userID uint64, seriesID string) error {
	owner, err := s.repo.SeriesOwner(ctx, seriesID)
	if err != nil {
		return err
	}
	if owner != userID {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Service) CreateEpisode(ctx context.Context, userID uint64, e *Episode) (*Episode, error) {
	if err := s.requireSeriesOwner(ctx, userID, e.SeriesID); err != nil {
		return nil, err
	}
	e.EpisodeID = uuid.New().String()
	if e.Status == "" {
		e.Status = EpisodeDraft
	}
	if err := s.repo.CreateEpisode(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) episodeOwned(ctx context.Context, userID uint64, episodeID string) (*Episode, error) {
	e, err := s.repo.GetEpisode(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSeriesOwner(ctx, userID, e.SeriesID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) GetEpisode(ctx context.Context, userID uint64, episodeID string) (*Episode, error) {
	return s.episodeOwned(ctx, userID, episodeID)
}

func (s *Service) ListEpisodes(ctx context.Context, userID uint64, seriesID string) ([]Episode, error) {
	if err := s.requireSeriesOwner(ctx, userID, seriesID); err != nil {
		return nil, err
	}
	return s.repo.ListEpisodes(ctx, seriesID)
}

func (s *Service) PublishEpisode(ctx context.Context, userID uint64, episodeID string) (*Episode, error) {
	e, err := s.episodeOwned(ctx, userID, episodeID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	e.Status = EpisodePublished
	e.PublishedAt = &now
	if err := s.repo.SaveEpisode(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) DeleteEpisode(ctx context.Context, userID uint64, episodeID string) error {
	if _, err := s.episodeOwned(ctx, userID, episodeID); err != nil {
		return err
	}
	return s.repo.DeleteEpisode(ctx, episodeID)
}

func (s *Service) CreatePage(ctx context.Context, userID uint64, p *Page) (*Page, error) {
	e, err := s.episodeOwned(ctx, userID, p.EpisodeID)
	if err != nil {
		return nil, err
	}
	p.PageID = uuid.New().String()
	if p.LayoutType == "" {
		p.LayoutType = "traditional"
	}
	if err := s.repo.CreatePage(ctx, p); err != nil {
		return nil, err
	}
	// keep the denormalized page count fresh; a stale count is tolerable
	if n, err := s.repo.CountPages(ctx, e.EpisodeID); err == nil {
		e.PageCount = int(n)
		_ = s.repo.SaveEpisode(ctx, e)
	}
	return p, nil
}

func (s *Service) ListPages(ctx context.Context, userID uint64, episodeID string) ([]Page, error) {
	if _, err := s.episodeOwned(ctx, userID, episodeID); err != nil {
		return nil, err
	}
	return s.repo.ListPages(ctx, episodeID)
}

func (s *Service) panelOwned(ctx context.Context, userID uint64, panelID string) (*Panel, error) {
	p, err := s.repo.GetPanel(ctx, panelID)
	if err != nil {
		return nil, err
	}
	owner, err := s.repo.PanelOwner(ctx, panelID)
	if err != nil {
		return nil, err
	}
	if owner != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *Service) CreatePanel(ctx context.Context, userID uint64, p *Panel) (*Panel, error) {
	page, err := s.repo.GetPage(ctx, p.PageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.episodeOwned(ctx, userID, page.EpisodeID); err != nil {
		return nil, err
	}
	p.PanelID = uuid.New().String()
	if p.PanelType == "" {
		p.PanelType = PanelStandard
	}
	if err := s.repo.CreatePanel(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPanel(ctx context.Context, userID uint64, panelID string) (*Panel, error) {
	return s.panelOwned(ctx, userID, panelID)
}

func (s *Service) ListPanels(ctx context.Context, userID uint64, pageID string) ([]Panel, error) {
	page, err := s.repo.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.episodeOwned(ctx, userID, page.EpisodeID); err != nil {
		return nil, err
	}
	return s.repo.ListPanels(ctx, pageID)
}

func (s *Service) UpdatePanel(ctx context.Context, userID uint64, p *Panel) error {
	cur, err := s.panelOwned(ctx, userID, p.PanelID)
	if err != nil {
		return err
	}
	p.ID = cur.ID
	p.PageID = cur.PageID
	p.CreatedAt = cur.CreatedAt
	return s.repo.SavePanel(ctx, p)
}

func (s *Service) DeletePanel(ctx context.Context, userID uint64, panelID string) error {
	if _, err := s.panelOwned(ctx, userID, panelID); err != nil {
		return err
	}
	return s.repo.DeletePanel(ctx, panelID)
}

// VerifyPanelOwner reports whether the panel exists and belongs to the user.
func (s *Service) VerifyPanelOwner(ctx context.Context, userID uint64, panelID string) error {
	_, err := s.panelOwned(ctx, userID, panelID)
	return err
}

// ApplyGeneratedImage writes a generation result into the target panel. The
// job subsystem calls this best-effort after a successful generation; a miss
// (panel deleted meanwhile) is logged, never escalated.
func (s *Service) ApplyGeneratedImage(ctx context.Context, panelID, imageURL, thumbnailURL, prompt string) error {
	err := s.repo.UpdatePanelImage(ctx, panelID, imageURL, thumbnailURL, prompt)
	if err != nil {
		slog.Warn("panel image update failed", "panel_id", panelID, "error", err)
	}
	return err
}

func (s *Service) CreateText(ctx context.Context, userID uint64, t *TextElement) (*TextElement, error) {
	if _, err := s.panelOwned(ctx, userID, t.PanelID); err != nil {
		return nil, err
	}
	t.TextID = uuid.New().String()
	if t.TextType == "" {
		t.TextType = TextDialogue
	}
	if err := s.repo.CreateText(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) ListTexts(ctx context.Context, userID uint64, panelID string) ([]TextElement, error) {
	if _, err := s.panelOwned(ctx, userID, panelID); err != nil {
		return nil, err
	}
	return s.repo.ListTexts(ctx, panelID)
}

func (s *Service) UpdateText(ctx context.Context, userID uint64, t *TextElement) error {
	cur, err := s.repo.GetText(ctx, t.TextID)
	if err != nil {
		return err
	}
	if _, err := s.panelOwned(ctx, userID, cur.PanelID); err != nil {
		return err
	}
	t.ID = cur.ID
	t.PanelID = cur.PanelID
	t.CreatedAt = cur.CreatedAt
	return s.repo.SaveText(ctx, t)
}

func (s *Service) DeleteText(ctx context.Context, userID uint64, textID string) error {
	cur, err := s.repo.GetText(ctx, textID)
	if err != nil {
		return err
	}
	if _, err := s.panelOwned(ctx, userID, cur.PanelID); err != nil {
		return err
	}
	return s.repo.DeleteText(ctx, textID)
}
