package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/user-admin/internal/core/domain"
	logicv1 "github.com/duynhne/user-admin/internal/logic/v1"
	"github.com/duynhne/user-admin/middleware"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	service *logicv1.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(service *logicv1.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// RegisterRoutes mounts the user and form endpoints on rg
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}

	forms := rg.Group("/forms/users")
	{
		forms.POST("/validate", h.ValidateUser)
		forms.GET("/username", h.DeriveUsername)
	}
}

// ListUsers handles GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	users, err := h.service.ListUsers(ctx)
	if err != nil {
		h.fail(c, span, logger, "Failed to list users", err)
		return
	}

	logger.Info("Users listed", zap.Int("count", len(users)))
	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	id, ok := userID(c, span)
	if !ok {
		return
	}

	user, err := h.service.GetUser(ctx, id)
	if err != nil {
		h.fail(c, span, logger, "Failed to get user", err)
		return
	}

	logger.Info("User retrieved", zap.Int("user_id", id))
	c.JSON(http.StatusOK, user)
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	input, ok := bindUser(c, span, logger)
	if !ok {
		return
	}

	user, err := h.service.CreateUser(ctx, input)
	if err != nil {
		h.fail(c, span, logger, "Failed to create user", err)
		return
	}

	logger.Info("User created", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	c.JSON(http.StatusCreated, user)
}

// UpdateUser handles PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	id, ok := userID(c, span)
	if !ok {
		return
	}
	input, ok := bindUser(c, span, logger)
	if !ok {
		return
	}

	user, err := h.service.UpdateUser(ctx, id, input)
	if err != nil {
		h.fail(c, span, logger, "Failed to update user", err)
		return
	}

	logger.Info("User updated", zap.Int("user_id", id))
	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	id, ok := userID(c, span)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(ctx, id); err != nil {
		h.fail(c, span, logger, "Failed to delete user", err)
		return
	}

	logger.Info("User deleted", zap.Int("user_id", id))
	c.Status(http.StatusNoContent)
}

// ValidateUser handles POST /api/v1/forms/users/validate.
// It answers with the record as it would be submitted and its field errors.
func (h *UserHandler) ValidateUser(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	input, ok := bindUser(c, span, logger)
	if !ok {
		return
	}

	rec, errs, err := h.service.PreviewUser(ctx, input)
	if err != nil {
		h.fail(c, span, logger, "Failed to load user for validation", err)
		return
	}
	span.SetAttributes(attribute.Bool("form.valid", errs.Valid()))
	c.JSON(http.StatusOK, gin.H{
		"valid":  errs.Valid(),
		"record": rec,
		"errors": errs,
	})
}

// DeriveUsername handles GET /api/v1/forms/users/username?name=
func (h *UserHandler) DeriveUsername(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"username": domain.DeriveUsername(c.Query("name"))})
}

// fail maps a service error to a response
func (h *UserHandler) fail(c *gin.Context, span trace.Span, logger *zap.Logger, msg string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.Info(msg, zap.Error(err), zap.Any("fields", verr.Fields.Messages()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, domain.ErrUserNotFound):
		logger.Info(msg, zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		span.RecordError(err)
		logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream unavailable"})
	default:
		span.RecordError(err)
		logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func startRequestSpan(c *gin.Context) (context.Context, trace.Span) {
	return middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.FullPath()),
	))
}

func userID(c *gin.Context, span trace.Span) (int, bool) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return 0, false
	}
	span.SetAttributes(attribute.Int("user.id", id))
	return id, true
}

func bindUser(c *gin.Context, span trace.Span, logger *zap.Logger) (domain.UserRecord, bool) {
	var input domain.UserRecord
	if err := c.ShouldBindJSON(&input); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		logger.Warn("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": sanitizeValidationError(err)})
		return input, false
	}
	span.SetAttributes(attribute.Bool("request.valid", true))
	return input, true
}
