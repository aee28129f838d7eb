package acts

import (
	"context"
	"sync"

	"github.com/kindacts/kindcli/internal/fetcher"
	"github.com/kindacts/kindcli/internal/logging"
	"github.com/kindacts/kindcli/internal/models"
)

// Feed is the public acts list shown to any visitor. The backend may
// already filter, but the feed keeps only approved acts regardless.
type Feed struct {
	api *fetcher.Client

	mu     sync.Mutex
	acts   []models.KindnessAct
	status Status
	err    error
}

func NewFeed(api *fetcher.Client) *Feed {
	return &Feed{api: api, status: StatusIdle}
}

func (f *Feed) Refetch(ctx context.Context) error {
	f.mu.Lock()
	f.status = StatusLoading
	f.err = nil
	f.mu.Unlock()

	var fetched []models.KindnessAct
	err := f.api.Get(ctx, "/api/acts", &fetched)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		logging.FromContext(ctx).Warn("acts feed fetch failed", "error", err)
		f.status = StatusErrored
		f.err = err
		return err
	}
	approved := make([]models.KindnessAct, 0, len(fetched))
	for _, act := range fetched {
		if act.Status == models.StatusApproved {
			approved = append(approved, act)
		}
	}
	f.acts = approved
	f.status = StatusReady
	return nil
}

func (f *Feed) Acts() []models.KindnessAct {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.KindnessAct, len(f.acts))
	copy(out, f.acts)
	return out
}

func (f *Feed) State() (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.err
}

// OwnActs is the caller's own suggestions, filtered by identity on the
// server side.
type OwnActs struct {
	api *fetcher.Client

	mu     sync.Mutex
	acts   []models.KindnessAct
	status Status
	err    error
}

func NewOwnActs(api *fetcher.Client) *OwnActs {
	return &OwnActs{api: api, status: StatusIdle}
}

func (o *OwnActs) Refetch(ctx context.Context) error {
	o.mu.Lock()
	o.status = StatusLoading
	o.err = nil
	o.mu.Unlock()

	var fetched []models.KindnessAct
	err := o.api.Get(ctx, "/api/acts/user", &fetched)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		logging.FromContext(ctx).Warn("own acts fetch failed", "error", err)
		o.status = StatusErrored
		o.err = err
		return err
	}
	o.acts = fetched
	o.status = StatusReady
	return nil
}

func (o *OwnActs) Acts() []models.KindnessAct {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.KindnessAct, len(o.acts))
	copy(out, o.acts)
	return out
}

func (o *OwnActs) State() (Status, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status, o.err
}

// AllActs is the moderation list: every act regardless of status. Fetching
// is refused without an admin session.
type AllActs struct {
	api      *fetcher.Client
	sessions SessionSource

	mu     sync.Mutex
	acts   []models.KindnessAct
	status Status
	err    error
}

func NewAllActs(api *fetcher.Client, sessions SessionSource) *AllActs {
	return &AllActs{api: api, sessions: sessions, status: StatusIdle}
}

func (a *AllActs) Refetch(ctx context.Context) error {
	if !a.sessions.Current().IsAdmin() {
		a.mu.Lock()
		a.status = StatusErrored
		a.err = ErrAdminRequired
		a.mu.Unlock()
		return ErrAdminRequired
	}

	a.mu.Lock()
	a.status = StatusLoading
	a.err = nil
	a.mu.Unlock()

	var fetched []models.KindnessAct
	err := a.api.Get(ctx, "/api/acts/all", &fetched)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		logging.FromContext(ctx).Warn("moderation list fetch failed", "error", err)
		a.status = StatusErrored
		a.err = err
		return err
	}
	a.acts = fetched
	a.status = StatusReady
	return nil
}

func (a *AllActs) Acts() []models.KindnessAct {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.KindnessAct, len(a.acts))
	copy(out, a.acts)
	return out
}

func (a *AllActs) State() (Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status, a.err
}
