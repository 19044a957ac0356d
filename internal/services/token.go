package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/todolist/apiserver/config"
	"github.com/todolist/apiserver/internal/store"
	"github.com/todolist/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

// TokenPair is an access/refresh token pair bound to one user.
type TokenPair struct {
	Access  string
	Refresh string
}

type tokenClaims struct {
	Username string `json:"username,omitempty"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenService verifies credentials against the user store and issues and
// validates signed HS256 tokens. It holds no state beyond the key material
// and lifetimes loaded at startup.
type TokenService struct {
	users      UserRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(users UserRepository, cfg config.JWTConfig) *TokenService {
	return &TokenService{
		users:      users,
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// IssuePair verifies the credentials and returns the matched user together
// with a fresh token pair. Any verification failure, including an inactive
// account, surfaces as ErrInvalidCredentials with no further detail.
func (s *TokenService) IssuePair(ctx context.Context, username, password string) (types.User, TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return types.User{}, TokenPair{}, err
	}
	if !user.Active {
		return types.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, TokenPair{}, ErrInvalidCredentials
	}

	access, err := s.sign(user, tokenKindAccess, s.accessTTL)
	if err != nil {
		return types.User{}, TokenPair{}, err
	}
	refresh, err := s.sign(user, tokenKindRefresh, s.refreshTTL)
	if err != nil {
		return types.User{}, TokenPair{}, err
	}

	return user, TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.resolve(ctx, refreshToken, tokenKindRefresh)
	if err != nil {
		return "", err
	}
	return s.sign(user, tokenKindAccess, s.accessTTL)
}

// Authenticate validates an access token and resolves its subject to an
// active user. A structurally valid token whose subject no longer exists is
// rejected the same way as a malformed one.
func (s *TokenService) Authenticate(ctx context.Context, accessToken string) (types.User, error) {
	return s.resolve(ctx, accessToken, tokenKindAccess)
}

func (s *TokenService) sign(user types.User, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Username: user.Username,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) resolve(ctx context.Context, tokenString, kind string) (types.User, error) {
	userID, err := s.parseSubject(tokenString, kind)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidToken
		}
		return types.User{}, err
	}
	if !user.Active {
		return types.User{}, ErrInvalidToken
	}
	return user, nil
}

func (s *TokenService) parseSubject(tokenString, kind string) (int, error) {
	claims := tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	if claims.Kind != kind {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
