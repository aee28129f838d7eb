package acts

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindacts/kindcli/internal/fakeapi"
	"github.com/kindacts/kindcli/internal/fetcher"
	"github.com/kindacts/kindcli/internal/models"
	"github.com/kindacts/kindcli/internal/session"
)

type stubSessions struct {
	sess *session.Session
}

func (s *stubSessions) Current() *session.Session { return s.sess }

func sessionFor(user models.User) *stubSessions {
	return &stubSessions{sess: &session.Session{User: user, ExpiresAt: time.Now().Add(time.Hour)}}
}

var anonymous = &stubSessions{}

type env struct {
	srv *fakeapi.Server
	api *fetcher.Client
}

// newEnv starts the fake backend and returns a client authenticated as the
// given role's user.
func newEnv(t *testing.T, role models.Role) (*env, models.User) {
	t.Helper()
	srv := fakeapi.NewServer()
	e := echo.New()
	srv.Register(e)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	user := srv.SeedUser("tester", "tester@example.com", "pw", role)
	token, err := srv.CreateToken(user, time.Now().Add(time.Hour))
	require.NoError(t, err)

	api := fetcher.NewClient(ts.URL)
	api.Tokens = func() string { return token }
	return &env{srv: srv, api: api}, user
}

func TestFeed_KeepsOnlyApproved(t *testing.T) {
	t.Parallel()

	env, user := newEnv(t, models.RoleUser)
	approved := env.srv.SeedAct("approved act", models.StatusApproved, user)
	env.srv.SeedAct("pending act", models.StatusPending, user)

	feed := NewFeed(env.api)
	st, err := feed.State()
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, st)

	require.NoError(t, feed.Refetch(context.Background()))

	st, err = feed.State()
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st)

	got := feed.Acts()
	require.Len(t, got, 1)
	assert.Equal(t, approved.ID, got[0].ID)
}

func TestFeed_ErrorIsDisplayStateAndRetryable(t *testing.T) {
	t.Parallel()

	srv := fakeapi.NewServer()
	e := echo.New()
	srv.Register(e)
	ts := httptest.NewServer(e)

	feed := NewFeed(fetcher.NewClient(ts.URL))
	ts.Close()

	err := feed.Refetch(context.Background())
	require.Error(t, err)
	st, stateErr := feed.State()
	assert.Equal(t, StatusErrored, st)
	assert.Error(t, stateErr)
}

func TestOwnActs_ServerFiltersByIdentity(t *testing.T) {
	t.Parallel()

	env, user := newEnv(t, models.RoleUser)
	other := env.srv.SeedUser("other", "other@example.com", "pw", models.RoleUser)
	mine := env.srv.SeedAct("mine", models.StatusPending, user)
	env.srv.SeedAct("not mine", models.StatusApproved, other)

	own := NewOwnActs(env.api)
	require.NoError(t, own.Refetch(context.Background()))

	got := own.Acts()
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)
}

func TestAllActs_RequiresAdminSession(t *testing.T) {
	t.Parallel()

	env, user := newEnv(t, models.RoleUser)
	env.srv.SeedAct("pending", models.StatusPending, user)

	before := env.srv.RequestCount()
	all := NewAllActs(env.api, sessionFor(user))
	err := all.Refetch(context.Background())
	require.ErrorIs(t, err, ErrAdminRequired)
	assert.Equal(t, before, env.srv.RequestCount(), "the gate rejects before any network call")

	st, stateErr := all.State()
	assert.Equal(t, StatusErrored, st)
	assert.ErrorIs(t, stateErr, ErrAdminRequired)
}

func TestAllActs_AdminSeesEveryStatus(t *testing.T) {
	t.Parallel()

	env, admin := newEnv(t, models.RoleAdmin)
	env.srv.SeedAct("pending", models.StatusPending, admin)
	env.srv.SeedAct("approved", models.StatusApproved, admin)
	env.srv.SeedAct("rejected", models.StatusRejected, admin)

	all := NewAllActs(env.api, sessionFor(admin))
	require.NoError(t, all.Refetch(context.Background()))
	assert.Len(t, all.Acts(), 3)
}

func TestSavedActs_ToggleRoundTrip(t *testing.T) {
	t.Parallel()

	env, user := newEnv(t, models.RoleUser)
	act := env.srv.SeedAct("hold the door", models.StatusApproved, user)

	saved := NewSavedActs(env.api)
	require.NoError(t, saved.Refetch(context.Background()))
	require.Empty(t, saved.Saved())

	nowSaved, err := saved.Toggle(context.Background(), act.ID)
	require.NoError(t, err)
	assert.True(t, nowSaved)
	require.Len(t, saved.Saved(), 1)
	assert.Equal(t, act.ID, saved.Saved()[0].Act.ID)

	nowSaved, err = saved.Toggle(context.Background(), act.ID)
	require.NoError(t, err)
	assert.False(t, nowSaved)
	assert.Empty(t, saved.Saved(), "save then unsave restores the original list")

	// The backend agrees after a refetch.
	require.NoError(t, saved.Refetch(context.Background()))
	assert.Empty(t, saved.Saved())
}

func TestSavedActs_CompletePromotes(t *testing.T) {
	t.Parallel()

	env, user := newEnv(t, models.RoleUser)
	act := env.srv.SeedAct("write a note", models.StatusApproved, user)

	saved := NewSavedActs(env.api)
	require.NoError(t, saved.Refetch(context.Background()))
	rec, err := saved.Save(context.Background(), act.ID)
	require.NoError(t, err)

	completed, msg, err := saved.Complete(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	assert.Equal(t, act.ID, completed.Act.ID)
	assert.Equal(t, user.ID, completed.User)
	assert.Empty(t, saved.Saved(), "completing removes the saved entry locally")

	history := NewCompletedActs(env.api, user.ID)
	require.NoError(t, history.Refetch(context.Background()))
	require.Len(t, history.Completed(), 1)
	assert.Equal(t, completed.ID, history.Completed()[0].ID)
}

func TestCompletedActs_MissingUserNeverCallsNetwork(t *testing.T) {
	t.Parallel()

	env, _ := newEnv(t, models.RoleUser)

	before := env.srv.RequestCount()
	unit := NewCompletedActs(env.api, "")
	err := unit.Refetch(context.Background())
	require.ErrorIs(t, err, ErrMissingUser)
	assert.Equal(t, before, env.srv.RequestCount())

	st, stateErr := unit.State()
	assert.Equal(t, StatusErrored, st)
	assert.ErrorIs(t, stateErr, ErrMissingUser)
}

func TestCompletedActs_PrependAndKeyChange(t *testing.T) {
	t.Parallel()

	env, user := newEnv(t, models.RoleUser)
	unit := NewCompletedActs(env.api, user.ID)
	require.NoError(t, unit.Refetch(context.Background()))

	unit.Prepend(models.CompletedAct{ID: "c-1", User: user.ID, Act: models.ActRef{Title: "local"}})
	require.Len(t, unit.Completed(), 1)

	unit.SetUser("someone-else")
	st, err := unit.State()
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, st, "a changed key drops back to idle until the next refetch")
	assert.Empty(t, unit.Completed())
}

func TestCreateAct_ForcesPendingForNonAdmin(t *testing.T) {
	t.Parallel()

	env, user := newEnv(t, models.RoleUser)
	mut := NewMutator(env.api, sessionFor(user))

	created, err := mut.CreateAct(context.Background(), models.NewAct{
		Title:      "sneaky",
		Difficulty: models.DifficultyEasy,
		Status:     models.StatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, created.Status, "non-admin submissions always go out pending")
}

func TestCreateAct_AdminStatusPassesThrough(t *testing.T) {
	t.Parallel()

	env, admin := newEnv(t, models.RoleAdmin)
	mut := NewMutator(env.api, sessionFor(admin))

	created, err := mut.CreateAct(context.Background(), models.NewAct{
		Title:      "blessed",
		Difficulty: models.DifficultyMedium,
		Status:     models.StatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, created.Status)
}

func TestUpdateAct_ForcesPendingForNonAdmin(t *testing.T) {
	t.Parallel()

	env, user := newEnv(t, models.RoleUser)
	act := env.srv.SeedAct("editable", models.StatusApproved, user)
	mut := NewMutator(env.api, sessionFor(user))

	updated, err := mut.UpdateAct(context.Background(), act.ID, models.NewAct{
		Title:  "edited",
		Status: models.StatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Title)
	assert.Equal(t, models.StatusPending, updated.Status)
}

func TestDeleteAct_ResolvesOnNoContent(t *testing.T) {
	t.Parallel()

	env, user := newEnv(t, models.RoleUser)
	act := env.srv.SeedAct("doomed", models.StatusPending, user)
	mut := NewMutator(env.api, sessionFor(user))

	msg, err := mut.DeleteAct(context.Background(), act.ID)
	require.NoError(t, err)
	assert.Equal(t, "act deleted", msg)
}

func TestSetStatus_Moderation(t *testing.T) {
	t.Parallel()

	env, admin := newEnv(t, models.RoleAdmin)
	act := env.srv.SeedAct("pending idea", models.StatusPending, admin)
	mut := NewMutator(env.api, sessionFor(admin))

	approved, err := mut.SetStatus(context.Background(), act.ID, models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	rejected, err := mut.SetStatus(context.Background(), act.ID, models.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	_, err = mut.SetStatus(context.Background(), act.ID, models.StatusPending)
	require.Error(t, err, "pending is not a moderation decision")
}

func TestSetStatus_GatedClientSide(t *testing.T) {
	t.Parallel()

	env, user := newEnv(t, models.RoleUser)
	act := env.srv.SeedAct("pending idea", models.StatusPending, user)

	before := env.srv.RequestCount()
	mut := NewMutator(env.api, sessionFor(user))
	_, err := mut.SetStatus(context.Background(), act.ID, models.StatusApproved)
	require.ErrorIs(t, err, ErrAdminRequired)
	assert.Equal(t, before, env.srv.RequestCount())
}

func TestMutator_AnonymousIsNotAdmin(t *testing.T) {
	t.Parallel()

	env, _ := newEnv(t, models.RoleUser)
	mut := NewMutator(env.api, anonymous)

	created, err := mut.CreateAct(context.Background(), models.NewAct{
		Title:  "anon",
		Status: models.StatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, created.Status)
}
