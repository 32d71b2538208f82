package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"geocatalog/internal/logger"
	"geocatalog/internal/model"
	"geocatalog/internal/repository"
)

// tokenBytes gives a 40 character hex key.
const tokenBytes = 20

// Session is the identity and token handed back by login and register.
type Session struct {
	User  *model.User
	Token *model.Token
}

// AuthService manages accounts and their bearer tokens.
type AuthService struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	bcryptCost int
}

// NewAuthService creates an AuthService. bcryptCost 0 selects bcrypt's default.
func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// Login checks the password and returns the user's token, creating it if the
// user has none. Repeated logins return the same token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

// Register creates a user and logs them in.
func (s *AuthService) Register(ctx context.Context, username, password, email string) (*Session, error) {
	user, err := s.CreateUser(ctx, username, password, email)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// CreateUser stores a new account without issuing a token.
func (s *AuthService) CreateUser(ctx context.Context, username, password, email string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	logger.Ctx(ctx).Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Logout revokes the user's token.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.tokens.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Authenticate resolves a token key to its user.
func (s *AuthService) Authenticate(ctx context.Context, key string) (*model.User, error) {
	token, err := s.tokens.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *model.User) (*Session, error) {
	key, err := newTokenKey()
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GetOrCreate(ctx, user.ID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

func newTokenKey() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
