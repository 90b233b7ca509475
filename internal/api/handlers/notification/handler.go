package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-dispatcher/internal/api/dto"
	"github.com/aliskhannn/notification-dispatcher/internal/api/respond"
	"github.com/aliskhannn/notification-dispatcher/internal/model"
	"github.com/aliskhannn/notification-dispatcher/internal/repository/notification"
)

// notificationService defines the interface that the Handler depends on.
//
//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/notification/mock.go -package=mocks
type notificationService interface {
	CreateNotification(context.Context, model.Notification) (model.Notification, error)
	GetUserNotifications(context.Context, string) ([]model.Notification, error)
	GetNotificationStatusByID(context.Context, uuid.UUID) (model.Status, error)
}

// Handler handles HTTP requests related to notifications.
type Handler struct {
	service   notificationService
	validator *validator.Validate
}

// NewHandler creates a new Handler instance.
func NewHandler(s notificationService, v *validator.Validate) *Handler {
	return &Handler{service: s, validator: v}
}

// Create handles POST /notifications.
//
// It validates the request body, stores the notification, enqueues it for
// delivery and responds with the stored notification.
func (h *Handler) Create(c *ginext.Context) {
	var req dto.CreateRequest

	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Error(c.Writer, http.StatusBadRequest, dto.Describe(err))
		return
	}

	n, err := req.Notification()
	if err != nil {
		respond.Error(c.Writer, http.StatusBadRequest, "invalid notification type, must be one of: "+model.ChannelNames())
		return
	}

	created, err := h.service.CreateNotification(c.Request.Context(), n)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", n.UserID).Msg("failed to create notification")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("failed to send notification"))
		return
	}

	respond.Created(c.Writer, created)
}

// GetUserNotifications handles GET /users/:id/notifications.
func (h *Handler) GetUserNotifications(c *ginext.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		zlog.Logger.Warn().Msg("missing user id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("user id is required"))
		return
	}

	notifications, err := h.service.GetUserNotifications(c.Request.Context(), userID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to get user notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("failed to get user notifications"))
		return
	}

	respond.OK(c.Writer, notifications)
}

// GetStatus handles GET /notifications/:id/status.
func (h *Handler) GetStatus(c *ginext.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("id", idStr).Msg("failed to parse id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	status, err := h.service.GetNotificationStatusByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			zlog.Logger.Warn().Str("id", id.String()).Msg("notification not found")
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
			return
		}

		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification status")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, dto.StatusResponse{ID: id.String(), Status: status})
}
