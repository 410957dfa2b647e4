package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/peoplehub/hr-identity/internal/audit"
	"github.com/peoplehub/hr-identity/internal/domain"
	"github.com/peoplehub/hr-identity/internal/repository"
	"github.com/peoplehub/hr-identity/pkg/telemetry"
)

var (
	// ErrInvalidCredentials covers both "no such user" and "wrong password"
	// so login responses cannot be used to enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is inactive")
	ErrNoSessions         = errors.New("no sessions found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// UserServiceConfig holds configuration for UserService.
type UserServiceConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

// UserService authenticates users and manages their sessions and role.
type UserService interface {
	// Login verifies the credentials, creates a session, and returns the
	// user together with all of their sessions.
	Login(ctx context.Context, username, password, userAgent, ip string) (*domain.User, []*domain.Session, error)
	// GetUserSessions returns every session of the user, oldest first.
	// Returns ErrNoSessions when the user has none.
	GetUserSessions(ctx context.Context, userID string) ([]*domain.Session, error)
	// UpdateRole overwrites the user's role and returns the updated user.
	UpdateRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error)
	// GetUser retrieves a user by ID. Returns ErrUserNotFound when absent.
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// ValidateAccessToken verifies an access token and returns its claims.
	ValidateAccessToken(ctx context.Context, token string) (*domain.AccessClaims, error)
}

type userService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	auditor     audit.Recorder
	config      *UserServiceConfig
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	auditor audit.Recorder,
	config *UserServiceConfig,
) UserService {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if auditor == nil {
		auditor = audit.Nop()
	}
	return &userService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		auditor:     auditor,
		config:      config,
	}
}

// Login authenticates a user and creates a session
func (s *userService) Login(ctx context.Context, username, password, userAgent, ip string) (*domain.User, []*domain.Session, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.login")
	defer span.End()

	span.SetAttributes(attribute.String("username", username))

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	if user == nil {
		span.SetStatus(codes.Error, "invalid credentials")
		s.auditor.Record(ctx, audit.LoginFailed(username, ip))
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		span.SetStatus(codes.Error, "user inactive")
		return nil, nil, ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		span.SetStatus(codes.Error, "invalid credentials")
		s.auditor.Record(ctx, audit.LoginFailed(username, ip))
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user, userAgent, ip)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	sessions, err := s.sessionRepo.ListByUser(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	span.SetAttributes(
		attribute.String("user_id", user.ID),
		attribute.String("session_id", session.ID),
	)
	span.SetStatus(codes.Ok, "")

	s.auditor.Record(ctx, audit.LoginSucceeded(user.ID, username, session.ID, ip))
	return user, sessions, nil
}

// GetUserSessions returns all sessions for a user, active or not. Callers
// filter for activity against the clock. The service is identity-agnostic:
// enforcing "self or admin" is the caller's concern.
func (s *userService) GetUserSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.get_sessions")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	sessions, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(sessions) == 0 {
		// An empty result is a distinguished outcome, not an empty success.
		span.SetStatus(codes.Error, "no sessions")
		return nil, ErrNoSessions
	}

	span.SetStatus(codes.Ok, "")
	return sessions, nil
}

// UpdateRole overwrites the user's single role value.
func (s *userService) UpdateRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.update_role")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("role", string(role)),
	)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, ErrUserNotFound
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	s.auditor.Record(ctx, audit.RoleChanged(user.ID, string(role)))
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *userService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.get")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", id))

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, ErrUserNotFound
	}

	span.SetStatus(codes.Ok, "")
	return user, nil
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *userService) ValidateAccessToken(ctx context.Context, tokenString string) (*domain.AccessClaims, error) {
	_, span := telemetry.StartSpan(ctx, "service.user.validate_token")
	defer span.End()

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, jwt.ErrTokenExpired) {
			span.SetStatus(codes.Error, "token expired")
			return nil, ErrTokenExpired
		}
		span.SetStatus(codes.Error, "invalid token")
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		span.SetStatus(codes.Error, "invalid token")
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		span.SetStatus(codes.Error, "invalid claims")
		return nil, ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	roleStr, _ := claims["role"].(string)
	sessionID, _ := claims["session_id"].(string)
	if userID == "" {
		span.SetStatus(codes.Error, "invalid claims")
		return nil, ErrInvalidToken
	}

	span.SetAttributes(attribute.String("user_id", userID))
	span.SetStatus(codes.Ok, "")

	return &domain.AccessClaims{
		UserID:    userID,
		Username:  username,
		Role:      domain.Role(roleStr),
		SessionID: sessionID,
	}, nil
}

// createSession issues a token pair and persists the session. The session
// is written in one insert so a cancelled context leaves no partial row.
func (s *userService) createSession(ctx context.Context, user *domain.User, userAgent, ip string) (*domain.Session, error) {
	sessionID := uuid.New().String()
	now := time.Now().UTC()
	accessExpiresAt := now.Add(s.config.AccessTokenTTL)
	refreshExpiresAt := now.Add(s.config.RefreshTokenTTL)

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        user.ID,
		"user_id":    user.ID,
		"username":   user.Username,
		"role":       string(user.Role),
		"session_id": sessionID,
		"iat":        now.Unix(),
		"exp":        accessExpiresAt.Unix(),
	})
	accessTokenString, err := accessToken.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, err
	}

	refreshTokenBytes := make([]byte, 32)
	if _, err := rand.Read(refreshTokenBytes); err != nil {
		return nil, err
	}
	refreshTokenString := base64.URLEncoding.EncodeToString(refreshTokenBytes)

	session := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		AccessToken:      accessTokenString,
		RefreshToken:     refreshTokenString,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
		UserAgent:        userAgent,
		IP:               ip,
		CreatedAt:        now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
