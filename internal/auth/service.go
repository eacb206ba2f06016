package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/alstn9213/open-insight/internal/model"
	"github.com/alstn9213/open-insight/internal/store"
)

var (
	ErrEmailTaken         = eris.New("auth: email already registered")
	ErrInvalidCredentials = eris.New("auth: invalid credentials")
)

// MemberStore is the subset of the store the auth service needs.
type MemberStore interface {
	CreateMember(ctx context.Context, member model.Member) error
	FindMemberByEmail(ctx context.Context, email string) (*model.Member, error)
}

// SignupRequest carries a new account registration.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// LoginRequest carries account credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service handles account registration and login.
type Service struct {
	store  MemberStore
	issuer *TokenIssuer
}

func NewService(memberStore MemberStore, issuer *TokenIssuer) *Service {
	return &Service{store: memberStore, issuer: issuer}
}

// Signup registers a new member with a bcrypt-hashed password.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*model.Member, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, eris.New("auth: valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, eris.New("auth: password must be at least 8 characters")
	}

	if _, err := s.store.FindMemberByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, eris.Wrap(err, "auth: check existing email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, eris.Wrap(err, "auth: hash password")
	}

	member := model.Member{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Nickname:     strings.TrimSpace(req.Nickname),
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateMember(ctx, member); err != nil {
		return nil, eris.Wrap(err, "auth: create member")
	}

	zap.L().Info("member registered", zap.String("email", email))
	return &member, nil
}

// Login verifies credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	member, err := s.store.FindMemberByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, eris.Wrap(err, "auth: find member")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(member)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: token, TokenType: "Bearer"}, nil
}
