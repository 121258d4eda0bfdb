package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/internal/session"
	apperrors "github.com/utafrali/PaintCatalog/pkg/errors"
)

// SessionView is the rendered state of a search session: the live query, the
// current result page and suggestions for the current query text.
type SessionView struct {
	SessionID    string               `json:"session_id"`
	Query        string               `json:"query"`
	Filters      domain.SearchFilters `json:"filters"`
	SortBy       domain.SortKey       `json:"sort_by"`
	Results      []domain.Product     `json:"results"`
	TotalResults int                  `json:"total_results"`
	CurrentPage  int                  `json:"current_page"`
	TotalPages   int                  `json:"total_pages"`
	Suggestions  []domain.Suggestion  `json:"suggestions"`
}

// SessionService keeps the registry of open search sessions.
type SessionService struct {
	catalog *CatalogService
	store   session.Store
	logger  *slog.Logger
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// NewSessionService creates a session registry. Sessions idle for longer than
// idleTTL are evicted by EvictIdle; zero disables eviction.
func NewSessionService(catalog *CatalogService, store session.Store, idleTTL time.Duration, logger *slog.Logger) *SessionService {
	return &SessionService{
		catalog:  catalog,
		store:    store,
		logger:   logger,
		idleTTL:  idleTTL,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*session.Session),
	}
}

// Create opens a new session for owner.
func (s *SessionService) Create(ctx context.Context, owner string) (*session.Session, error) {
	if owner == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}
	sess := session.Open(ctx, uuid.New().String(), owner, s.store, s.logger)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	activeSessions.Set(float64(n))

	s.logger.InfoContext(ctx, "search session opened",
		slog.String("session_id", sess.ID),
		slog.String("user_id", owner),
	)
	return sess, nil
}

// Get returns the session with id when it belongs to owner.
func (s *SessionService) Get(id, owner string) (*session.Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()

	if !ok {
		return nil, apperrors.NotFound("session", id)
	}
	if sess.Owner != owner {
		return nil, apperrors.Forbidden("session belongs to another user")
	}
	sess.Touch()
	return sess, nil
}

// Close removes a session from the registry. Persisted collections remain.
func (s *SessionService) Close(id, owner string) error {
	if _, err := s.Get(id, owner); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	activeSessions.Set(float64(n))
	return nil
}

// EvictIdle closes sessions not used since idleTTL and returns how many were
// closed.
func (s *SessionService) EvictIdle(ctx context.Context) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	evicted := 0
	for id, sess := range s.sessions {
		if sess.LastTouched().Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()
	activeSessions.Set(float64(n))

	if evicted > 0 {
		s.logger.InfoContext(ctx, "evicted idle search sessions", slog.Int("count", evicted))
	}
	return evicted
}

// RunJanitor evicts idle sessions every interval until ctx is canceled.
func (s *SessionService) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(ctx)
		}
	}
}

// View evaluates the session's live query and renders it.
func (s *SessionService) View(ctx context.Context, id, owner string) (*SessionView, error) {
	sess, err := s.Get(id, owner)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, sess)
}

func (s *SessionService) render(ctx context.Context, sess *session.Session) (*SessionView, error) {
	st := sess.State()
	result, err := s.catalog.Search(ctx, domain.SearchQuery{
		Query:   st.Query,
		Filters: st.Filters,
		SortBy:  st.SortBy,
		Page:    st.CurrentPage,
	})
	if err != nil {
		return nil, err
	}
	sess.SetResultCount(result.TotalResults)

	return &SessionView{
		SessionID:    sess.ID,
		Query:        st.Query,
		Filters:      st.Filters,
		SortBy:       st.SortBy,
		Results:      result.Products,
		TotalResults: result.TotalResults,
		CurrentPage:  result.CurrentPage,
		TotalPages:   result.TotalPages,
		Suggestions:  s.catalog.Suggest(ctx, st.Query, sess.History()),
	}, nil
}

// UpdateQuery replaces the free-text query.
func (s *SessionService) UpdateQuery(ctx context.Context, id, owner, q string) (*SessionView, error) {
	sess, err := s.Get(id, owner)
	if err != nil {
		return nil, err
	}
	sess.UpdateSearchQuery(ctx, q)
	return s.render(ctx, sess)
}

// UpdateFilters replaces the filter set.
func (s *SessionService) UpdateFilters(ctx context.Context, id, owner string, f domain.SearchFilters) (*SessionView, error) {
	sess, err := s.Get(id, owner)
	if err != nil {
		return nil, err
	}
	if _, err := sess.UpdateFilters(f); err != nil {
		return nil, err
	}
	return s.render(ctx, sess)
}

// ClearFilters removes all filters.
func (s *SessionService) ClearFilters(ctx context.Context, id, owner string) (*SessionView, error) {
	sess, err := s.Get(id, owner)
	if err != nil {
		return nil, err
	}
	sess.ClearFilters()
	return s.render(ctx, sess)
}

// SetPage moves to a result page.
func (s *SessionService) SetPage(ctx context.Context, id, owner string, page int) (*SessionView, error) {
	sess, err := s.Get(id, owner)
	if err != nil {
		return nil, err
	}
	sess.SetPage(page)
	return s.render(ctx, sess)
}

// SetSort changes the ordering. Unknown keys are rejected.
func (s *SessionService) SetSort(ctx context.Context, id, owner, raw string) (*SessionView, error) {
	key, ok := domain.ParseSortKey(raw)
	if !ok {
		return nil, apperrors.InvalidParameter("sort", "must be one of: relevance, price-low, price-high, rating, newest, popular, name")
	}
	sess, err := s.Get(id, owner)
	if err != nil {
		return nil, err
	}
	sess.SetSortBy(key)
	return s.render(ctx, sess)
}

// Suggestions returns suggestions for partial using the session's history.
func (s *SessionService) Suggestions(ctx context.Context, id, owner, partial string) ([]domain.Suggestion, error) {
	sess, err := s.Get(id, owner)
	if err != nil {
		return nil, err
	}
	return s.catalog.Suggest(ctx, partial, sess.History()), nil
}

// History returns the session owner's search history.
func (s *SessionService) History(id, owner string) ([]string, error) {
	sess, err := s.Get(id, owner)
	if err != nil {
		return nil, err
	}
	return sess.History(), nil
}

// ClearHistory empties the search history.
func (s *SessionService) ClearHistory(ctx context.Context, id, owner string) error {
	sess, err := s.Get(id, owner)
	if err != nil {
		return err
	}
	sess.ClearHistory(ctx)
	return nil
}

// SavedSearches lists the owner's saved searches.
func (s *SessionService) SavedSearches(id, owner string) ([]domain.SavedSearch, error) {
	sess, err := s.Get(id, owner)
	if err != nil {
		return nil, err
	}
	return sess.SavedSearches(), nil
}

// SaveSearch saves the live query under name together with its result count,
// both taken from the same session state.
func (s *SessionService) SaveSearch(ctx context.Context, id, owner, name string) (domain.SavedSearch, error) {
	sess, err := s.Get(id, owner)
	if err != nil {
		return domain.SavedSearch{}, err
	}
	return sess.SaveSearchCounted(ctx, name, func(st session.State) (int, error) {
		result, err := s.catalog.Search(ctx, domain.SearchQuery{
			Query:   st.Query,
			Filters: st.Filters,
			SortBy:  st.SortBy,
			Page:    1,
		})
		if err != nil {
			return 0, err
		}
		return result.TotalResults, nil
	})
}

// LoadSavedSearch restores a saved search into the live query.
func (s *SessionService) LoadSavedSearch(ctx context.Context, id, owner, searchID string) (*SessionView, error) {
	sess, err := s.Get(id, owner)
	if err != nil {
		return nil, err
	}
	if _, err := sess.LoadSavedSearch(ctx, searchID); err != nil {
		return nil, err
	}
	return s.render(ctx, sess)
}

// DeleteSavedSearch removes a saved search.
func (s *SessionService) DeleteSavedSearch(ctx context.Context, id, owner, searchID string) error {
	sess, err := s.Get(id, owner)
	if err != nil {
		return err
	}
	return sess.DeleteSavedSearch(ctx, searchID)
}

// Len returns the number of open sessions.
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
