// Package acts mirrors the server-side act lists: each unit owns a local
// copy of one list plus its load state, re-fetched only on demand. Local
// mutations are applied optimistically and reconciled by the next refetch;
// nothing here polls or invalidates on its own.
package acts

import (
	"errors"

	"github.com/kindacts/kindcli/internal/session"
)

// Status is the lifecycle of a sync unit: idle until the first fetch,
// then loading, settling into ready or errored. Only an explicit Refetch
// (or a changed key) re-enters loading.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusErrored:
		return "errored"
	}
	return "unknown"
}

var (
	// ErrAdminRequired gates admin-only calls client-side. Real enforcement
	// belongs to the backend.
	ErrAdminRequired = errors.New("admin session required")
	// ErrMissingUser is reported, without a network call, when a unit needs
	// a user id and has none.
	ErrMissingUser = errors.New("missing identity: no user id")
)

// SessionSource hands units the current session for role and identity
// checks. *session.Manager satisfies it.
type SessionSource interface {
	Current() *session.Session
}
