package acts

import (
	"context"
	"net/url"
	"sync"

	"github.com/kindacts/kindcli/internal/fetcher"
	"github.com/kindacts/kindcli/internal/logging"
	"github.com/kindacts/kindcli/internal/models"
)

// CompletedActs is a user's read-only completion history, keyed by user id.
// With no id it refuses to touch the network and reports the missing
// identity instead.
type CompletedActs struct {
	api *fetcher.Client

	mu        sync.Mutex
	userID    string
	completed []models.CompletedAct
	status    Status
	err       error
}

func NewCompletedActs(api *fetcher.Client, userID string) *CompletedActs {
	return &CompletedActs{api: api, userID: userID, status: StatusIdle}
}

// SetUser changes the key. The list drops back to idle; the caller refetches
// when it wants the new user's history.
func (c *CompletedActs) SetUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if userID == c.userID {
		return
	}
	c.userID = userID
	c.completed = nil
	c.status = StatusIdle
	c.err = nil
}

func (c *CompletedActs) Refetch(ctx context.Context) error {
	c.mu.Lock()
	id := c.userID
	if id == "" {
		c.status = StatusErrored
		c.err = ErrMissingUser
		c.mu.Unlock()
		return ErrMissingUser
	}
	c.status = StatusLoading
	c.err = nil
	c.mu.Unlock()

	var fetched []models.CompletedAct
	err := c.api.Get(ctx, "/api/completed/"+url.PathEscape(id), &fetched)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		logging.FromContext(ctx).Warn("completed acts fetch failed", "error", err)
		c.status = StatusErrored
		c.err = err
		return err
	}
	c.completed = fetched
	c.status = StatusReady
	return nil
}

// Prepend applies a fresh completion locally, so completing a saved act
// shows up without a second fetch.
func (c *CompletedActs) Prepend(rec models.CompletedAct) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = append([]models.CompletedAct{rec}, c.completed...)
}

func (c *CompletedActs) Completed() []models.CompletedAct {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CompletedAct, len(c.completed))
	copy(out, c.completed)
	return out
}

func (c *CompletedActs) State() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.err
}
