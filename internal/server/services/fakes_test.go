package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/cryptox"
	"github.com/dmitrijs2005/taskboard/internal/dbx"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/auth"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	refreshtokensrepo "github.com/dmitrijs2005/taskboard/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/taskboard/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// --- in-memory repositories ---

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	err     error // returned by every call when set
	dupOnce bool  // next Create reports a unique violation
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*models.User{}} }

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.dupOnce {
		m.dupOnce = false
		return nil, common.ErrorAlreadyExists
	}
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	cp.ID = uuid.NewString()
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.byID, id)
	return nil
}

type memRefreshTokens struct {
	mu    sync.Mutex
	byJTI map[string]*models.RefreshToken
	seq   int
	err   error
}

func newMemRefreshTokens() *memRefreshTokens {
	return &memRefreshTokens{byJTI: map[string]*models.RefreshToken{}}
}

func (m *memRefreshTokens) Create(_ context.Context, t *models.RefreshToken) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.byJTI[t.JTI]; ok {
		return nil, common.ErrorAlreadyExists
	}
	m.seq++
	cp := *t
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Unix(int64(m.seq), 0)
	m.byJTI[cp.JTI] = &cp
	out := cp
	return &out, nil
}

func (m *memRefreshTokens) FindByJTI(_ context.Context, jti string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.byJTI[jti]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *t
	return &out, nil
}

func (m *memRefreshTokens) Revoke(_ context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if t, ok := m.byJTI[jti]; ok {
		t.Revoked = true
	}
	return nil
}

func (m *memRefreshTokens) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, t := range m.byJTI {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

func (m *memRefreshTokens) ListByUser(_ context.Context, userID string, offset, limit int) ([]*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	list := make([]*models.RefreshToken, 0)
	for _, t := range m.byJTI {
		if t.UserID == userID {
			out := *t
			list = append(list, &out)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if offset >= len(list) {
		return []*models.RefreshToken{}, nil
	}
	list = list[offset:]
	if limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

func (m *memRefreshTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for jti, t := range m.byJTI {
		if t.ExpiresAt.Before(now) {
			delete(m.byJTI, jti)
			n++
		}
	}
	return n, nil
}

func (m *memRefreshTokens) byUser(userID string) []*models.RefreshToken {
	list, _ := m.ListByUser(context.Background(), userID, 0, 1000)
	return list
}

type fakeRepoManager struct {
	u *memUsers
	r *memRefreshTokens
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }

// --- hasher spy ---

type spyHasher struct {
	*cryptox.PasswordHasher
	mu       sync.Mutex
	verified []string
}

func (s *spyHasher) Verify(plaintext, encoded string) bool {
	s.mu.Lock()
	s.verified = append(s.verified, encoded)
	s.mu.Unlock()
	return s.PasswordHasher.Verify(plaintext, encoded)
}

// --- harness ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type harness struct {
	svc    *SessionService
	users  *memUsers
	tokens *memRefreshTokens
	hasher *spyHasher
	codec  *auth.TokenCodec
	clock  *fakeClock
}

const (
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 30 * 24 * time.Hour
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	ph, err := cryptox.NewPasswordHasher(cryptox.AlgorithmArgon2id,
		cryptox.Argon2Params{Time: 1, MemoryKiB: 1024, Threads: 1}, 0)
	require.NoError(t, err)
	return newHarnessWithHasher(t, ph)
}

func newHarnessWithHasher(t *testing.T, ph *cryptox.PasswordHasher) *harness {
	t.Helper()

	clock := &fakeClock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	hasher := &spyHasher{PasswordHasher: ph}

	codec, err := auth.NewTokenCodec(auth.Config{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		Algorithm:  "HS256",
		Issuer:     "taskboard",
		AccessTTL:  testAccessTTL,
		RefreshTTL: testRefreshTTL,
	}, clock.Now)
	require.NoError(t, err)

	users := newMemUsers()
	tokens := newMemRefreshTokens()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	svc := NewSessionService(nil, &fakeRepoManager{u: users, r: tokens}, hasher, codec, logger)
	svc.now = clock.Now

	return &harness{svc: svc, users: users, tokens: tokens, hasher: hasher, codec: codec, clock: clock}
}

func (h *harness) register(t *testing.T, name, email, password string) (*TokenPair, *models.User) {
	t.Helper()
	pair, err := h.svc.Register(context.Background(), name, email, password)
	require.NoError(t, err)
	u, err := h.users.GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return pair, u
}

func (h *harness) jtiOf(t *testing.T, refresh string) string {
	t.Helper()
	claims, err := h.codec.Decode(refresh, common.TokenKindRefresh)
	require.NoError(t, err)
	return claims.ID
}
