package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/peoplehub/hr-identity/internal/domain"
)

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	mu            sync.Mutex
	users         map[string]*domain.User
	usernameIndex map[string]*domain.User
	getError      error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:         make(map[string]*domain.User),
		usernameIndex: make(map[string]*domain.User),
	}
}

func (r *mockUserRepository) add(user *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	r.usernameIndex[user.Username] = user
}

func (r *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getError != nil {
		return nil, r.getError
	}
	return r.users[id], nil
}

func (r *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getError != nil {
		return nil, r.getError
	}
	return r.usernameIndex[username], nil
}

func (r *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	r.usernameIndex[user.Username] = user
	return nil
}

// mockSessionRepository is a mock implementation of SessionRepository
type mockSessionRepository struct {
	mu           sync.Mutex
	sessions     map[string]*domain.Session
	userSessions map[string][]*domain.Session
	createError  error
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{
		sessions:     make(map[string]*domain.Session),
		userSessions: make(map[string][]*domain.Session),
	}
}

func (r *mockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createError != nil {
		return r.createError
	}
	r.sessions[session.ID] = session
	r.userSessions[session.UserID] = append(r.userSessions[session.UserID], session)
	return nil
}

func (r *mockSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id], nil
}

func (r *mockSessionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Session(nil), r.userSessions[userID]...), nil
}

func (r *mockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := time.Now()
	for id, s := range r.sessions {
		if s.RefreshExpiresAt.Before(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func testConfig() *UserServiceConfig {
	return &UserServiceConfig{
		JWTSecret:       "test-secret-key",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}
}

func testUser(t *testing.T, username, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return &domain.User{
		ID:           "user-" + username,
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestUserService_Login(t *testing.T) {
	userRepo := newMockUserRepository()
	sessionRepo := newMockSessionRepository()
	svc := NewUserService(userRepo, sessionRepo, nil, testConfig())

	alice := testUser(t, "alice", "Password1!", domain.RoleUser)
	userRepo.add(alice)

	t.Run("successful login creates a session", func(t *testing.T) {
		before := time.Now()
		user, sessions, err := svc.Login(context.Background(), "alice", "Password1!", "test-agent", "127.0.0.1")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if user.ID != alice.ID {
			t.Errorf("Login() user = %s, want %s", user.ID, alice.ID)
		}
		if len(sessions) != 1 {
			t.Fatalf("Login() returned %d sessions, want 1", len(sessions))
		}

		s := sessions[0]
		if s.AccessToken == "" || s.RefreshToken == "" {
			t.Error("Login() session tokens are empty")
		}
		if !s.AccessExpiresAt.After(before) {
			t.Error("Login() accessExpiresAt is not in the future")
		}
		if !s.RefreshExpiresAt.After(s.AccessExpiresAt) {
			t.Error("Login() refreshExpiresAt must exceed accessExpiresAt")
		}
	})

	t.Run("unknown username and wrong password fail identically", func(t *testing.T) {
		_, _, errUnknown := svc.Login(context.Background(), "nobody", "Password1!", "", "")
		_, _, errWrongPw := svc.Login(context.Background(), "alice", "wrong", "", "")

		if !errors.Is(errUnknown, ErrInvalidCredentials) {
			t.Errorf("unknown username error = %v, want ErrInvalidCredentials", errUnknown)
		}
		if !errors.Is(errWrongPw, ErrInvalidCredentials) {
			t.Errorf("wrong password error = %v, want ErrInvalidCredentials", errWrongPw)
		}
	})

	t.Run("inactive user is rejected", func(t *testing.T) {
		bob := testUser(t, "bob", "Password1!", domain.RoleUser)
		bob.IsActive = false
		userRepo.add(bob)

		_, _, err := svc.Login(context.Background(), "bob", "Password1!", "", "")
		if !errors.Is(err, ErrUserInactive) {
			t.Errorf("Login() error = %v, want ErrUserInactive", err)
		}
	})

	t.Run("session create failure surfaces", func(t *testing.T) {
		failRepo := newMockSessionRepository()
		failRepo.createError = errors.New("store down")
		failSvc := NewUserService(userRepo, failRepo, nil, testConfig())

		_, _, err := failSvc.Login(context.Background(), "alice", "Password1!", "", "")
		if err == nil || errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want storage error", err)
		}
	})
}

func TestUserService_Login_ConcurrentSessionsAreDistinct(t *testing.T) {
	userRepo := newMockUserRepository()
	sessionRepo := newMockSessionRepository()
	svc := NewUserService(userRepo, sessionRepo, nil, testConfig())

	userRepo.add(testUser(t, "carol", "Password1!", domain.RoleUser))

	const logins = 4
	var wg sync.WaitGroup
	errs := make([]error, logins)
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.Login(context.Background(), "carol", "Password1!", "", "")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("login %d failed: %v", i, err)
		}
	}

	sessions, err := sessionRepo.ListByUser(context.Background(), "user-carol")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(sessions) != logins {
		t.Fatalf("got %d sessions, want %d (no overwrite)", len(sessions), logins)
	}

	seenIDs := make(map[string]bool)
	seenRefresh := make(map[string]bool)
	for _, s := range sessions {
		if seenIDs[s.ID] {
			t.Errorf("duplicate session id %s", s.ID)
		}
		if seenRefresh[s.RefreshToken] {
			t.Error("duplicate refresh token across concurrent logins")
		}
		seenIDs[s.ID] = true
		seenRefresh[s.RefreshToken] = true
	}
}

func TestUserService_GetUserSessions(t *testing.T) {
	userRepo := newMockUserRepository()
	sessionRepo := newMockSessionRepository()
	svc := NewUserService(userRepo, sessionRepo, nil, testConfig())

	t.Run("no sessions is a distinguished outcome", func(t *testing.T) {
		_, err := svc.GetUserSessions(context.Background(), "user-without-sessions")
		if !errors.Is(err, ErrNoSessions) {
			t.Errorf("GetUserSessions() error = %v, want ErrNoSessions", err)
		}
	})

	t.Run("returns all sessions including expired", func(t *testing.T) {
		expired := &domain.Session{
			ID:               "s-old",
			UserID:           "user-dave",
			AccessToken:      "a1",
			RefreshToken:     "r1",
			AccessExpiresAt:  time.Now().Add(-2 * time.Hour),
			RefreshExpiresAt: time.Now().Add(-time.Hour),
			CreatedAt:        time.Now().Add(-3 * time.Hour),
		}
		live := &domain.Session{
			ID:               "s-new",
			UserID:           "user-dave",
			AccessToken:      "a2",
			RefreshToken:     "r2",
			AccessExpiresAt:  time.Now().Add(15 * time.Minute),
			RefreshExpiresAt: time.Now().Add(time.Hour),
			CreatedAt:        time.Now(),
		}
		sessionRepo.Create(context.Background(), expired)
		sessionRepo.Create(context.Background(), live)

		sessions, err := svc.GetUserSessions(context.Background(), "user-dave")
		if err != nil {
			t.Fatalf("GetUserSessions() error = %v", err)
		}
		if len(sessions) != 2 {
			t.Errorf("got %d sessions, want 2", len(sessions))
		}
	})
}

func TestUserService_UpdateRole(t *testing.T) {
	userRepo := newMockUserRepository()
	sessionRepo := newMockSessionRepository()
	svc := NewUserService(userRepo, sessionRepo, nil, testConfig())

	userRepo.add(testUser(t, "erin", "Password1!", domain.RoleUser))

	t.Run("overwrites the single role", func(t *testing.T) {
		user, err := svc.UpdateRole(context.Background(), "user-erin", domain.RoleAdmin)
		if err != nil {
			t.Fatalf("UpdateRole() error = %v", err)
		}
		if user.Role != domain.RoleAdmin {
			t.Errorf("UpdateRole() role = %s, want admin", user.Role)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		first, err := svc.UpdateRole(context.Background(), "user-erin", domain.RoleAdmin)
		if err != nil {
			t.Fatalf("UpdateRole() error = %v", err)
		}
		second, err := svc.UpdateRole(context.Background(), "user-erin", domain.RoleAdmin)
		if err != nil {
			t.Fatalf("UpdateRole() second call error = %v", err)
		}
		if first.Role != second.Role {
			t.Errorf("UpdateRole() not idempotent: %s vs %s", first.Role, second.Role)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.UpdateRole(context.Background(), "no-such-user", domain.RoleAdmin)
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("UpdateRole() error = %v, want ErrUserNotFound", err)
		}
	})
}

func TestUserService_ValidateAccessToken(t *testing.T) {
	userRepo := newMockUserRepository()
	sessionRepo := newMockSessionRepository()
	svc := NewUserService(userRepo, sessionRepo, nil, testConfig())

	frank := testUser(t, "frank", "Password1!", domain.RoleAdmin)
	userRepo.add(frank)

	t.Run("round-trips claims from login", func(t *testing.T) {
		_, sessions, err := svc.Login(context.Background(), "frank", "Password1!", "", "")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}

		claims, err := svc.ValidateAccessToken(context.Background(), sessions[0].AccessToken)
		if err != nil {
			t.Fatalf("ValidateAccessToken() error = %v", err)
		}
		if claims.UserID != frank.ID {
			t.Errorf("claims.UserID = %s, want %s", claims.UserID, frank.ID)
		}
		if claims.Username != "frank" {
			t.Errorf("claims.Username = %s, want frank", claims.Username)
		}
		if claims.Role != domain.RoleAdmin {
			t.Errorf("claims.Role = %s, want admin", claims.Role)
		}
		if claims.SessionID != sessions[0].ID {
			t.Errorf("claims.SessionID = %s, want %s", claims.SessionID, sessions[0].ID)
		}
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": frank.ID,
			"iat":     time.Now().Add(-2 * time.Hour).Unix(),
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		tokenString, err := expired.SignedString([]byte("test-secret-key"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := svc.ValidateAccessToken(context.Background(), tokenString); !errors.Is(err, ErrTokenExpired) {
			t.Errorf("ValidateAccessToken() error = %v, want ErrTokenExpired", err)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken(context.Background(), "not-a-token")
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateAccessToken() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		otherCfg := testConfig()
		otherCfg.JWTSecret = "different-secret"
		otherSvc := NewUserService(userRepo, newMockSessionRepository(), nil, otherCfg)

		_, sessions, err := otherSvc.Login(context.Background(), "frank", "Password1!", "", "")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if _, err := svc.ValidateAccessToken(context.Background(), sessions[0].AccessToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateAccessToken() error = %v, want ErrInvalidToken", err)
		}
	})
}
