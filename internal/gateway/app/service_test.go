package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/auth-gateway/internal/auth"
	"github.com/aelexs/auth-gateway/internal/domain"
	"github.com/aelexs/auth-gateway/internal/domain/domaintest"
)

type fakeUserStore struct {
	mu      sync.Mutex
	byID    map[int64]*UserRecord
	byName  map[string]*UserRecord
	nextID  int64
	failGet error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:   make(map[int64]*UserRecord),
		byName: make(map[string]*UserRecord),
		nextID: 1,
	}
}

func (f *fakeUserStore) GetByID(_ context.Context, userID int64) (*UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	record, ok := f.byID[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (f *fakeUserStore) FindByName(_ context.Context, name string) (*UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (f *fakeUserStore) Insert(_ context.Context, record NewUserRecord) (*UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.byName[record.Name]; taken {
		return nil, domain.ErrAlreadyExists
	}
	created := &UserRecord{
		UserID:       f.nextID,
		Name:         record.Name,
		PasswordHash: record.PasswordHash,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	f.nextID++
	f.byID[created.UserID] = created
	f.byName[created.Name] = created
	copied := *created
	return &copied, nil
}

func newTestService(t *testing.T) (*AuthService, *fakeUserStore, *domaintest.FakeClock) {
	t.Helper()

	clock := domaintest.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	codec := auth.NewCodec(auth.CodecConfig{
		Secret:     domain.SecretBytes([]byte("test-signing-secret")),
		Issuer:     domain.TokenIssuer,
		AccessTTL:  domain.AccessTokenLifetime,
		RefreshTTL: domain.RefreshTokenLifetime,
		Clock:      clock,
	})
	store := newFakeUserStore()

	svc := NewAuthService(AuthServiceConfig{
		Users:  store,
		Codec:  codec,
		Clock:  clock,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return svc, store, clock
}

func TestSignupIssuesSession(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Signup(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	assert.Equal(t, "alice", session.Principal.Name)
	assert.NotZero(t, session.Principal.UserID)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.NotEqual(t, session.AccessToken, session.RefreshToken)
	assert.True(t, session.RefreshExpiresAt.After(session.AccessExpiresAt))

	stored, err := store.FindByName(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
}

func TestSignupDuplicateName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "alice", "another-password")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "empty username", username: "", password: "correct-horse"},
		{name: "username too long", username: string(make([]byte, domain.MaxUsernameLength+1)), password: "correct-horse"},
		{name: "password too short", username: "alice", password: "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Principal.Name)
	assert.NotEmpty(t, session.AccessToken)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	// A user row with no password hash can exist when records are seeded
	// out of band. It must reject logins like any bad credential.
	_, err = store.Insert(ctx, NewUserRecord{Name: "ghost", PasswordHash: ""})
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "unknown user", username: "nobody", password: "correct-horse"},
		{name: "wrong password", username: "alice", password: "wrong-password"},
		{name: "no password set", username: "ghost", password: "anything-at-all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		})
	}
}

func TestResolvePrincipal(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Signup(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	principal, err := svc.ResolvePrincipal(ctx, session.Principal.Subject())
	require.NoError(t, err)
	assert.Equal(t, session.Principal, principal)

	t.Run("garbage subject", func(t *testing.T) {
		_, err := svc.ResolvePrincipal(ctx, "not-a-number")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("deleted user", func(t *testing.T) {
		_, err := svc.ResolvePrincipal(ctx, "9999")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("store failure is not unauthorized", func(t *testing.T) {
		store.failGet = errors.New("dynamo unavailable")
		defer func() { store.failGet = nil }()

		_, err := svc.ResolvePrincipal(ctx, session.Principal.Subject())
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestIssueSessionTokensVerify(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	session, err := svc.Signup(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	codec := auth.NewCodec(auth.CodecConfig{
		Secret:     domain.SecretBytes([]byte("test-signing-secret")),
		Issuer:     domain.TokenIssuer,
		AccessTTL:  domain.AccessTokenLifetime,
		RefreshTTL: domain.RefreshTokenLifetime,
		Clock:      clock,
	})

	access, err := codec.Verify(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.KindAccess, access.TokenKind)
	assert.Equal(t, session.Principal.Subject(), access.Subject)

	refresh, err := codec.Verify(session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, auth.KindRefresh, refresh.TokenKind)

	clock.Advance(domain.AccessTokenLifetime + time.Minute)

	_, err = codec.Verify(session.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)

	_, err = codec.Verify(session.RefreshToken)
	assert.NoError(t, err)
}
