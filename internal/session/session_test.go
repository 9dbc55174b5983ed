package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
	"wallet/internal/metrics"
	"wallet/internal/notify"
	"wallet/internal/store"
)

type activeRecorder struct {
	metrics.Nop
	active int
}

func (r *activeRecorder) SetActiveSessions(n int) { r.active = n }

func newTestManager(t *testing.T, size int, ttl time.Duration, opts ...Option) *Manager {
	t.Helper()
	return NewManager(size, ttl, func() *store.Store { return store.New(nil) }, opts...)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(t, 10, time.Hour)
	user := core.User{Name: "Ann", Email: "ann@example.com"}

	s := m.Create("opaque-token", user)
	require.NotEmpty(t, s.ID)
	require.NotNil(t, s.Store)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, user, got.User)

	_, ok = m.Get("unknown")
	assert.False(t, ok)
	_, ok = m.Get("")
	assert.False(t, ok)
}

func TestSessionLifetimeBoundedByToken(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, 10, 12*time.Hour, WithClock(func() time.Time { return now }))

	short := m.Create(signedToken(t, now.Add(30*time.Minute)), core.User{})
	assert.Equal(t, now.Add(30*time.Minute), short.ExpiresAt)

	long := m.Create(signedToken(t, now.Add(48*time.Hour)), core.User{})
	assert.Equal(t, now.Add(12*time.Hour), long.ExpiresAt)

	opaque := m.Create("not-a-jwt", core.User{})
	assert.Equal(t, now.Add(12*time.Hour), opaque.ExpiresAt)
}

func TestDeleteResetsStore(t *testing.T) {
	rec := &activeRecorder{}
	m := newTestManager(t, 10, time.Hour, WithMetrics(rec))

	s := m.Create("token", core.User{})
	s.Store.Dispatch(store.CategoriesFetched{Categories: []core.Category{{Name: "Food"}}})
	assert.Equal(t, 1, rec.active)

	m.Delete(s.ID)
	m.Delete(s.ID)

	_, ok := m.Get(s.ID)
	assert.False(t, ok)
	assert.Empty(t, s.Store.State().Categories)
	assert.Equal(t, 0, rec.active)
	assert.Equal(t, 0, m.Active())
}

func TestCapacityEvictsOldest(t *testing.T) {
	rec := &activeRecorder{}
	m := newTestManager(t, 2, time.Hour, WithMetrics(rec))

	first := m.Create("a", core.User{})
	m.Create("b", core.User{})
	m.Create("c", core.User{})

	_, ok := m.Get(first.ID)
	assert.False(t, ok)
	assert.Equal(t, 2, m.Active())
	assert.Equal(t, 2, rec.active)
}

func TestFlashIsOneShot(t *testing.T) {
	m := newTestManager(t, 10, time.Hour)
	s := m.Create("token", core.User{})

	assert.Nil(t, s.PopFlash())
	s.SetFlash(notify.Error("first"))
	s.SetFlash(notify.Success("Category Rent is created"))

	n := s.PopFlash()
	require.NotNil(t, n)
	assert.Equal(t, notify.KindSuccess, n.Kind)
	assert.Equal(t, "Category Rent is created", n.Text)
	assert.Nil(t, s.PopFlash())
}
