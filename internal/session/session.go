package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/PaintCatalog/internal/domain"
	apperrors "github.com/utafrali/PaintCatalog/pkg/errors"
)

// State is the live query of a session. ResultCount is derived from the
// last evaluation of that query.
type State struct {
	Query       string               `json:"query"`
	Filters     domain.SearchFilters `json:"filters"`
	SortBy      domain.SortKey       `json:"sort_by"`
	CurrentPage int                  `json:"current_page"`
	ResultCount int                  `json:"result_count"`
}

// Option customizes a Session.
type Option func(*Session)

// WithClock overrides the time source used for saved search timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator overrides how saved search ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// Session is the search state of one owner. All methods are safe for
// concurrent use.
type Session struct {
	ID    string
	Owner string

	mu      sync.Mutex
	state   State
	history []string
	saved   []domain.SavedSearch
	touched time.Time

	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Open creates a session for owner and reads its persisted collections once.
func Open(ctx context.Context, id, owner string, store Store, logger *slog.Logger, opts ...Option) *Session {
	s := &Session{
		ID:     id,
		Owner:  owner,
		state:  State{SortBy: domain.SortRelevance, CurrentPage: 1},
		store:  store,
		logger: logger.With(slog.String("session_id", id)),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = loadSlot[string](ctx, store, HistoryKey(owner), s.logger)
	if len(s.history) > domain.MaxHistory {
		s.history = s.history[:domain.MaxHistory]
	}
	s.saved = loadSlot[domain.SavedSearch](ctx, store, SavedSearchesKey(owner), s.logger)
	for i := range s.saved {
		s.saved[i].Filters.Normalize()
	}
	if len(s.saved) > domain.MaxSavedSearches {
		s.saved = s.saved[:domain.MaxSavedSearches]
	}
	s.touched = s.now()
	return s
}

// State returns a copy of the live query state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastTouched returns when the session was last read or mutated.
func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Touch marks the session as used.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
}

// SetResultCount records the result count of the current query.
func (s *Session) SetResultCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ResultCount = n
}

// UpdateSearchQuery replaces the free-text query, records it in history and
// resets the page.
func (s *Session) UpdateSearchQuery(ctx context.Context, q string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Query = q
	s.state.CurrentPage = 1
	s.touched = s.now()

	if next, changed := pushHistory(s.history, q); changed {
		s.history = next
		saveSlot(ctx, s.store, HistoryKey(s.Owner), s.history, s.logger)
	}
	return s.state
}

// pushHistory moves q to the front of history, removing an earlier entry with
// the same trimmed, case-insensitive text and capping the list.
func pushHistory(history []string, q string) ([]string, bool) {
	entry := strings.TrimSpace(q)
	if entry == "" {
		return history, false
	}

	next := make([]string, 0, domain.MaxHistory)
	next = append(next, entry)
	for _, h := range history {
		if strings.EqualFold(h, entry) {
			continue
		}
		if len(next) == domain.MaxHistory {
			break
		}
		next = append(next, h)
	}
	return next, true
}

// UpdateFilters replaces the filter set wholesale and resets the page.
func (s *Session) UpdateFilters(f domain.SearchFilters) (State, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return State{}, apperrors.InvalidInput(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filters = f
	s.state.CurrentPage = 1
	s.touched = s.now()
	return s.state, nil
}

// ClearFilters removes every filter and resets the page.
func (s *Session) ClearFilters() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filters = domain.SearchFilters{}
	s.state.CurrentPage = 1
	s.touched = s.now()
	return s.state
}

// SetPage moves to page, clamped to 1.
func (s *Session) SetPage(page int) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentPage = max(page, 1)
	s.touched = s.now()
	return s.state
}

// SetSortBy changes the ordering and resets the page.
func (s *Session) SetSortBy(key domain.SortKey) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SortBy = key
	s.state.CurrentPage = 1
	s.touched = s.now()
	return s.state
}

// History returns the search history, most recent first.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.history...)
}

// ClearHistory empties the search history.
func (s *Session) ClearHistory(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = []string{}
	s.touched = s.now()
	saveSlot(ctx, s.store, HistoryKey(s.Owner), s.history, s.logger)
}

// SavedSearches returns the saved searches, most recent first.
func (s *Session) SavedSearches() []domain.SavedSearch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SavedSearch{}, s.saved...)
}

// SaveSearch stores the current query and filters under name. The result
// count is the one recorded for the current query.
func (s *Session) SaveSearch(ctx context.Context, name string) (domain.SavedSearch, error) {
	return s.SaveSearchCounted(ctx, name, func(st State) (int, error) { return st.ResultCount, nil })
}

// SaveSearchCounted is SaveSearch with the result count evaluated by count
// for the state being saved. The session stays locked while count runs, so
// the query cannot change between counting and saving.
func (s *Session) SaveSearchCounted(ctx context.Context, name string, count func(State) (int, error)) (domain.SavedSearch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.SavedSearch{}, apperrors.InvalidInput("saved search name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := count(s.state)
	if err != nil {
		return domain.SavedSearch{}, err
	}
	s.state.ResultCount = n

	saved := domain.SavedSearch{
		ID:          s.newID(),
		Name:        name,
		Query:       s.state.Query,
		Filters:     s.state.Filters,
		CreatedAt:   s.now(),
		ResultCount: n,
	}

	next := make([]domain.SavedSearch, 0, min(len(s.saved)+1, domain.MaxSavedSearches))
	next = append(next, saved)
	for _, ss := range s.saved {
		if len(next) == domain.MaxSavedSearches {
			break
		}
		next = append(next, ss)
	}
	s.saved = next
	s.touched = saved.CreatedAt

	saveSlot(ctx, s.store, SavedSearchesKey(s.Owner), s.saved, s.logger)
	return saved, nil
}

// LoadSavedSearch restores the query and filters of a saved search, stamps
// its last use and resets the page. History is not affected.
func (s *Session) LoadSavedSearch(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfSaved(id)
	if i < 0 {
		return State{}, apperrors.NotFound("saved search", id)
	}

	now := s.now()
	s.saved[i].LastUsed = &now
	s.state.Query = s.saved[i].Query
	s.state.Filters = s.saved[i].Filters
	s.state.CurrentPage = 1
	s.touched = now

	saveSlot(ctx, s.store, SavedSearchesKey(s.Owner), s.saved, s.logger)
	return s.state, nil
}

// DeleteSavedSearch removes a saved search.
func (s *Session) DeleteSavedSearch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfSaved(id)
	if i < 0 {
		return apperrors.NotFound("saved search", id)
	}
	s.saved = append(s.saved[:i:i], s.saved[i+1:]...)
	s.touched = s.now()

	saveSlot(ctx, s.store, SavedSearchesKey(s.Owner), s.saved, s.logger)
	return nil
}

func (s *Session) indexOfSaved(id string) int {
	for i := range s.saved {
		if s.saved[i].ID == id {
			return i
		}
	}
	return -1
}
