package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/todolist/apiserver/config"
	"github.com/todolist/apiserver/internal/store"
	"github.com/todolist/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

type stubUserRepo struct {
	users map[int]types.User
}

func (r *stubUserRepo) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	return nil, 0, nil
}

func (r *stubUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *stubUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	return user, nil
}

func (r *stubUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	return user, nil
}

func (r *stubUserRepo) Delete(ctx context.Context, id int) error { return nil }

func newTokenTestService(t *testing.T, accessTTL time.Duration) (*TokenService, *stubUserRepo) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	repo := &stubUserRepo{users: map[int]types.User{
		1: {
			ID:           1,
			Username:     "alice",
			FirstName:    "Alice",
			PasswordHash: string(hashed),
			Active:       true,
		},
	}}

	svc := NewTokenService(repo, config.JWTConfig{
		Secret:     "test-secret",
		AccessTTL:  accessTTL,
		RefreshTTL: time.Hour,
	})
	return svc, repo
}

func TestIssuePairAndAuthenticate(t *testing.T) {
	svc, _ := newTokenTestService(t, time.Minute)
	ctx := context.Background()

	user, pair, err := svc.IssuePair(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}

	principal, err := svc.Authenticate(ctx, pair.Access)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal.ID != 1 {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestIssuePairRejectsBadCredentials(t *testing.T) {
	svc, repo := newTokenTestService(t, time.Minute)
	ctx := context.Background()

	if _, _, err := svc.IssuePair(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, _, err := svc.IssuePair(ctx, "nobody", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v", err)
	}

	user := repo.users[1]
	user.Active = false
	repo.users[1] = user
	if _, _, err := svc.IssuePair(ctx, "alice", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("inactive user: got %v", err)
	}
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	svc, _ := newTokenTestService(t, time.Minute)
	ctx := context.Background()

	_, pair, err := svc.IssuePair(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := svc.Authenticate(ctx, pair.Refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
}

func TestRefresh(t *testing.T) {
	svc, _ := newTokenTestService(t, time.Minute)
	ctx := context.Background()

	_, pair, err := svc.IssuePair(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	access, err := svc.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := svc.Authenticate(ctx, access); err != nil {
		t.Fatalf("authenticate refreshed token: %v", err)
	}

	if _, err := svc.Refresh(ctx, pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	svc, _ := newTokenTestService(t, -time.Minute)
	ctx := context.Background()

	_, pair, err := svc.IssuePair(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := svc.Authenticate(ctx, pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestAuthenticateRejectsVanishedSubject(t *testing.T) {
	svc, repo := newTokenTestService(t, time.Minute)
	ctx := context.Background()

	_, pair, err := svc.IssuePair(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	delete(repo.users, 1)
	if _, err := svc.Authenticate(ctx, pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token for deleted user accepted: %v", err)
	}
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	svc, _ := newTokenTestService(t, time.Minute)
	other, _ := newTokenTestService(t, time.Minute)
	other.secret = []byte("other-secret")
	ctx := context.Background()

	_, pair, err := other.IssuePair(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := svc.Authenticate(ctx, pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign-signed token accepted: %v", err)
	}
}
