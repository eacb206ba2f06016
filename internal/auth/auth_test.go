package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alstn9213/open-insight/internal/model"
	"github.com/alstn9213/open-insight/internal/store"
)

type fakeMemberStore struct {
	members map[string]model.Member
}

func newFakeMemberStore() *fakeMemberStore {
	return &fakeMemberStore{members: make(map[string]model.Member)}
}

func (f *fakeMemberStore) CreateMember(_ context.Context, member model.Member) error {
	if _, ok := f.members[member.Email]; ok {
		return errors.New("duplicate email")
	}
	f.members[member.Email] = member
	return nil
}

func (f *fakeMemberStore) FindMemberByEmail(_ context.Context, email string) (*model.Member, error) {
	m, ok := f.members[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func newTestService(t *testing.T) (*Service, *TokenIssuer) {
	t.Helper()
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	return NewService(newFakeMemberStore(), issuer), issuer
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	member := &model.Member{Email: "user@example.com", Role: model.RoleUser}
	token, err := issuer.Issue(member)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Subject)
	assert.Equal(t, model.RoleUser, claims.Role)
}

func TestTokenIssuer_RejectsTampered(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("other-secret", time.Hour)
	require.NoError(t, err)

	token, err := other.Issue(&model.Member{Email: "user@example.com", Role: model.RoleUser})
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Nanosecond)
	require.NoError(t, err)

	token, err := issuer.Issue(&model.Member{Email: "user@example.com", Role: model.RoleUser})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi", ok: true},
		{name: "lowercase prefix", header: "bearer abc", want: "abc", ok: true},
		{name: "empty", header: "", ok: false},
		{name: "no prefix", header: "abc.def.ghi", ok: false},
		{name: "prefix only", header: "Bearer ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractBearer(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_SignupAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	member, err := svc.Signup(ctx, SignupRequest{
		Email:    "User@Example.com",
		Password: "hunter22!",
		Nickname: "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", member.Email)
	assert.Equal(t, model.RoleUser, member.Role)
	assert.NotEqual(t, "hunter22!", member.PasswordHash)

	resp, err := svc.Login(ctx, LoginRequest{Email: "user@example.com", Password: "hunter22!"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestService_SignupValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Email: "not-an-email", Password: "hunter22!"})
	assert.Error(t, err)

	_, err = svc.Signup(ctx, SignupRequest{Email: "user@example.com", Password: "short"})
	assert.Error(t, err)
}

func TestService_SignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Email: "user@example.com", Password: "hunter22!"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupRequest{Email: "user@example.com", Password: "hunter22!"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_LoginBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Email: "user@example.com", Password: "hunter22!"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "user@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "hunter22!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMiddleware(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	handler := Middleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "user@example.com", claims.Subject)
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token", func(t *testing.T) {
		token, err := issuer.Issue(&model.Member{Email: "user@example.com", Role: model.RoleUser})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/market/rankings", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/market/rankings", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "A001")
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/market/rankings", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
