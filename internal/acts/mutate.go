package acts

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/kindacts/kindcli/internal/fetcher"
	"github.com/kindacts/kindcli/internal/models"
)

// Mutator is the stateless side of the layer: create, update, delete and
// moderate acts. Errors are returned to the caller rather than stored, so
// forms can show inline feedback.
type Mutator struct {
	api      *fetcher.Client
	sessions SessionSource
}

func NewMutator(api *fetcher.Client, sessions SessionSource) *Mutator {
	return &Mutator{api: api, sessions: sessions}
}

// forceStatus applies the role override: whatever status the caller put in
// the payload, a non-admin submission always goes out pending.
func (m *Mutator) forceStatus(act models.NewAct) models.NewAct {
	if !m.sessions.Current().IsAdmin() {
		act.Status = models.StatusPending
	}
	return act
}

func (m *Mutator) CreateAct(ctx context.Context, act models.NewAct) (models.KindnessAct, error) {
	act = m.forceStatus(act)
	var created models.KindnessAct
	if err := m.api.Post(ctx, "/api/acts", act, &created); err != nil {
		if errors.Is(err, fetcher.ErrEmptyBody) {
			return models.KindnessAct{}, fmt.Errorf("create act: %w", err)
		}
		return models.KindnessAct{}, err
	}
	return created, nil
}

func (m *Mutator) UpdateAct(ctx context.Context, id string, act models.NewAct) (models.KindnessAct, error) {
	act = m.forceStatus(act)
	var updated models.KindnessAct
	if err := m.api.Put(ctx, "/api/acts/"+url.PathEscape(id), act, &updated); err != nil {
		if errors.Is(err, fetcher.ErrEmptyBody) {
			return models.KindnessAct{}, fmt.Errorf("update act: %w", err)
		}
		return models.KindnessAct{}, err
	}
	return updated, nil
}

// DeleteAct resolves to a confirmation message even when the server answers
// with an empty 204.
func (m *Mutator) DeleteAct(ctx context.Context, id string) (string, error) {
	var conf confirmation
	err := m.api.Delete(ctx, "/api/acts/"+url.PathEscape(id), &conf)
	if errors.Is(err, fetcher.ErrEmptyBody) {
		return "act deleted", nil
	}
	if err != nil {
		return "", err
	}
	return conf.Message, nil
}

type statusRequest struct {
	Status models.ActStatus `json:"status"`
}

// SetStatus is the moderation transition: approve or reject a pending act.
// Admin only, gated client-side like the moderation list.
func (m *Mutator) SetStatus(ctx context.Context, id string, status models.ActStatus) (models.KindnessAct, error) {
	if !m.sessions.Current().IsAdmin() {
		return models.KindnessAct{}, ErrAdminRequired
	}
	if status != models.StatusApproved && status != models.StatusRejected {
		return models.KindnessAct{}, fmt.Errorf("status %q is not a moderation decision", status)
	}
	var updated models.KindnessAct
	if err := m.api.Put(ctx, "/api/acts/"+url.PathEscape(id), statusRequest{Status: status}, &updated); err != nil {
		return models.KindnessAct{}, err
	}
	return updated, nil
}
