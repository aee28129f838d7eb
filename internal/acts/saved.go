package acts

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/kindacts/kindcli/internal/fetcher"
	"github.com/kindacts/kindcli/internal/logging"
	"github.com/kindacts/kindcli/internal/models"
)

// SavedActs is the caller's bookmark list. Save, unsave and complete apply
// their result locally right away so the UI does not wait on a second
// fetch; the next Refetch reconciles.
type SavedActs struct {
	api *fetcher.Client

	mu     sync.Mutex
	saved  []models.SavedAct
	status Status
	err    error
}

func NewSavedActs(api *fetcher.Client) *SavedActs {
	return &SavedActs{api: api, status: StatusIdle}
}

func (s *SavedActs) Refetch(ctx context.Context) error {
	s.mu.Lock()
	s.status = StatusLoading
	s.err = nil
	s.mu.Unlock()

	var fetched []models.SavedAct
	err := s.api.Get(ctx, "/api/saved", &fetched)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		logging.FromContext(ctx).Warn("saved acts fetch failed", "error", err)
		s.status = StatusErrored
		s.err = err
		return err
	}
	s.saved = fetched
	s.status = StatusReady
	return nil
}

func (s *SavedActs) Saved() []models.SavedAct {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SavedAct, len(s.saved))
	copy(out, s.saved)
	return out
}

func (s *SavedActs) State() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.err
}

type saveRequest struct {
	ActID string `json:"actId"`
}

type confirmation struct {
	Message string `json:"message"`
}

type completeResponse struct {
	Message   string              `json:"message"`
	Completed models.CompletedAct `json:"completedAct"`
}

// Save bookmarks an act and prepends the returned association locally.
func (s *SavedActs) Save(ctx context.Context, actID string) (models.SavedAct, error) {
	var rec models.SavedAct
	if err := s.api.Post(ctx, "/api/saved", saveRequest{ActID: actID}, &rec); err != nil {
		return models.SavedAct{}, err
	}
	s.mu.Lock()
	s.saved = append([]models.SavedAct{rec}, s.saved...)
	s.mu.Unlock()
	return rec, nil
}

// Unsave deletes the association and removes the local entry. The server's
// confirmation message is returned; a bodiless 204 gets a default one.
func (s *SavedActs) Unsave(ctx context.Context, savedID string) (string, error) {
	var conf confirmation
	err := s.api.Delete(ctx, "/api/saved/"+url.PathEscape(savedID), &conf)
	if errors.Is(err, fetcher.ErrEmptyBody) {
		conf.Message = "act unsaved"
		err = nil
	}
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.removeLocked(savedID)
	s.mu.Unlock()
	return conf.Message, nil
}

// Complete promotes a saved act to a completed record. The saved entry is
// removed locally and the completed record handed back so the caller can
// prepend it to its completed list.
func (s *SavedActs) Complete(ctx context.Context, savedID string) (models.CompletedAct, string, error) {
	var res completeResponse
	if err := s.api.Put(ctx, "/api/saved/"+url.PathEscape(savedID)+"/complete", nil, &res); err != nil {
		return models.CompletedAct{}, "", err
	}
	s.mu.Lock()
	s.removeLocked(savedID)
	s.mu.Unlock()
	return res.Completed, res.Message, nil
}

// Toggle applies the feed's save/unsave policy: scan the current list for
// the act; unsave the matching association if found, save otherwise.
// Check-then-act with no locking across clients; concurrent toggles are
// reconciled by the next refetch. Returns whether the act ended up saved.
func (s *SavedActs) Toggle(ctx context.Context, actID string) (bool, error) {
	s.mu.Lock()
	var savedID string
	for _, rec := range s.saved {
		if rec.Act.ID == actID {
			savedID = rec.ID
			break
		}
	}
	s.mu.Unlock()

	if savedID != "" {
		_, err := s.Unsave(ctx, savedID)
		return false, err
	}
	_, err := s.Save(ctx, actID)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SavedActs) removeLocked(savedID string) {
	kept := s.saved[:0]
	for _, rec := range s.saved {
		if rec.ID != savedID {
			kept = append(kept, rec)
		}
	}
	s.saved = kept
}
