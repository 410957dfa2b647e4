package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/peoplehub/hr-identity/internal/domain"
	"github.com/peoplehub/hr-identity/internal/dto"
	"github.com/peoplehub/hr-identity/internal/identity"
	"github.com/peoplehub/hr-identity/internal/service"
	"github.com/peoplehub/hr-identity/pkg/response"
	"github.com/peoplehub/hr-identity/pkg/telemetry"
)

// UserHandler handles login, session, and role management HTTP requests.
type UserHandler struct {
	userService service.UserService
	log         *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// Login handles user login.
// POST /Login
func (h *UserHandler) Login(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.login")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request body")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(attribute.String("username", req.Username))

	user, sessions, err := h.userService.Login(ctx, req.Username, req.Password, c.GetHeader("User-Agent"), c.ClientIP())
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, service.ErrInvalidCredentials) {
			span.SetStatus(codes.Error, "invalid credentials")
			response.Error(c, http.StatusNotFound, "INVALID_CREDENTIALS", "Invalid username or password", "")
			return
		}
		if errors.Is(err, service.ErrUserInactive) {
			span.SetStatus(codes.Error, "user inactive")
			response.Error(c, http.StatusForbidden, "USER_INACTIVE", "User account is inactive", "")
			return
		}
		span.SetStatus(codes.Error, err.Error())
		response.InternalError(c, err)
		return
	}

	// The session just created should be the first unexpired one. Not
	// finding any means the stored state contradicts what Login reported.
	session := firstUnexpired(sessions, time.Now().UTC())
	if session == nil {
		h.log.Error("login persisted no usable session",
			zap.String("user_id", user.ID),
			zap.Int("session_count", len(sessions)),
		)
		span.SetStatus(codes.Error, "no usable session after login")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Login could not establish a session", "")
		return
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")

	response.Success(c, dto.LoginResponse{
		ID:               user.ID,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Email:            user.Email,
		Username:         user.Username,
		Role:             string(user.Role),
		SessionID:        session.ID,
		AccessToken:      session.AccessToken,
		RefreshToken:     session.RefreshToken,
		AccessExpiresAt:  session.AccessExpiresAt,
		RefreshExpiresAt: session.RefreshExpiresAt,
	})
}

// Session returns the authenticated caller's active sessions.
// GET /Session
func (h *UserHandler) Session(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.session")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := identity.Get(c, identity.ClaimUserID, "")
	if userID == "" {
		span.SetStatus(codes.Error, "no user identity")
		response.Unauthorized(c, "User not authenticated")
		return
	}
	span.SetAttributes(attribute.String("user_id", userID))

	sessions, err := h.userService.GetUserSessions(ctx, userID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, service.ErrNoSessions) {
			span.SetStatus(codes.Error, "no sessions")
			response.NotFound(c, "No active sessions found for this user")
			return
		}
		span.SetStatus(codes.Error, err.Error())
		response.InternalError(c, err)
		return
	}

	now := time.Now().UTC()
	active := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		if s.Active(now) {
			active = append(active, dto.ToSessionResponse(s))
		}
	}
	if len(active) == 0 {
		span.SetStatus(codes.Error, "no active sessions")
		response.NotFound(c, "No active sessions found for this user")
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.SessionStateResponse{
		ID:             userID,
		HasSession:     identity.Authenticated(c),
		Username:       identity.Get(c, identity.ClaimUsername, "Anonymous"),
		Role:           identity.Get(c, identity.ClaimRole, string(domain.RoleNone)),
		ActiveSessions: active,
	})
}

// GetUserSessions returns any user's sessions. Admin only.
// GET /:userId/Session
func (h *UserHandler) GetUserSessions(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.get_sessions")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.Param("userId")
	span.SetAttributes(attribute.String("user_id", userID))

	sessions, err := h.userService.GetUserSessions(ctx, userID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, service.ErrNoSessions) {
			span.SetStatus(codes.Error, "no sessions")
			response.NotFound(c, "No sessions found for this user")
			return
		}
		span.SetStatus(codes.Error, err.Error())
		response.InternalError(c, err)
		return
	}

	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, dto.ToSessionResponse(s))
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, out)
}

// GetUserDetails returns a user's account details. Admin only.
// GET /:userId/Details
func (h *UserHandler) GetUserDetails(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.get_details")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.Param("userId")
	span.SetAttributes(attribute.String("user_id", userID))

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, service.ErrUserNotFound) {
			span.SetStatus(codes.Error, "user not found")
			response.NotFound(c, "User not found")
			return
		}
		span.SetStatus(codes.Error, err.Error())
		response.InternalError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.ToUserResponse(user))
}

// SetUserRole overwrites a user's role. Admin only.
// POST /:userId/Role?role=<Role>
func (h *UserHandler) SetUserRole(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.set_role")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.Param("userId")
	roleParam := c.Query("role")
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("role", roleParam),
	)

	role, ok := domain.ParseRole(roleParam)
	if !ok {
		span.SetStatus(codes.Error, "invalid role")
		response.Error(c, http.StatusBadRequest, "INVALID_ROLE", "Unknown role: "+roleParam, "")
		return
	}

	user, err := h.userService.UpdateRole(ctx, userID, role)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, service.ErrUserNotFound) {
			span.SetStatus(codes.Error, "user not found")
			response.NotFound(c, "User not found")
			return
		}
		span.SetStatus(codes.Error, err.Error())
		response.InternalError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.ToUserResponse(user))
}

func firstUnexpired(sessions []*domain.Session, now time.Time) *domain.Session {
	for _, s := range sessions {
		if s.AccessValid(now) {
			return s
		}
	}
	return nil
}
