package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mattjoyce/orderhook/internal/auth"
	"github.com/mattjoyce/orderhook/internal/log"
	"github.com/mattjoyce/orderhook/internal/notify"
	"github.com/mattjoyce/orderhook/internal/order"
)

// Handler turns order webhooks into chat notifications.
type Handler struct {
	config    Config
	deliverer notify.Deliverer
	logger    log.Logger
}

// New creates a Handler. The configuration is checked per request, not here.
func New(config Config, deliverer notify.Deliverer, logger log.Logger) *Handler {
	return &Handler{
		config:    config,
		deliverer: deliverer,
		logger:    logger,
	}
}

// Handle runs one request through authentication, parsing, formatting and
// delivery. It never returns an error: every fault becomes a Response.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	authHeader := req.Header.Get("Authorization")

	h.logger.Log(slog.LevelInfo, "request received",
		"request_id", req.RequestID,
		"method", req.Method,
		"user_agent", req.Header.Get("User-Agent"),
		"has_auth", authHeader != "",
		"body_size", len(req.Body),
	)

	if h.config.SharedSecret == "" {
		h.logger.Log(slog.LevelError, "FLOW_SHARED_SECRET not configured", "request_id", req.RequestID)
		return errorResponse(http.StatusInternalServerError, OutcomeConfigError, MsgInternalError)
	}
	if h.config.WebhookURL == "" {
		h.logger.Log(slog.LevelError, "SLACK_WEBHOOK_URL not configured", "request_id", req.RequestID)
		return errorResponse(http.StatusInternalServerError, OutcomeConfigError, MsgInternalError)
	}

	if !auth.Authenticate(req.Header, h.config.SharedSecret) {
		h.logger.Log(slog.LevelWarn, "authentication failed",
			"request_id", req.RequestID,
			"has_bearer", auth.HasBearerPrefix(authHeader),
			"auth_header_length", len(authHeader),
		)
		return errorResponse(http.StatusUnauthorized, OutcomeUnauthorized, MsgUnauthorized)
	}
	h.logger.Log(slog.LevelInfo, "authentication successful", "request_id", req.RequestID)

	payload, err := order.Parse(req.Body)
	switch {
	case errors.Is(err, order.ErrNotObject):
		h.logger.Log(slog.LevelError, "request body must be an object", "request_id", req.RequestID)
		return errorResponse(http.StatusBadRequest, OutcomeInvalidBody, MsgNotObject)
	case err != nil:
		h.logger.Log(slog.LevelError, "invalid JSON in request body",
			"request_id", req.RequestID,
			"error", err.Error(),
		)
		return errorResponse(http.StatusBadRequest, OutcomeInvalidJSON, MsgInvalidJSON)
	}

	h.logger.Log(slog.LevelInfo, "request body parsed",
		"request_id", req.RequestID,
		"has_order_id", payload.HasOrderID(),
		"has_name", payload.HasName(),
		"has_total", payload.HasTotal(),
	)

	if resp, ok := h.deliver(ctx, req.RequestID, payload.Message()); !ok {
		return resp
	}

	h.logger.Log(slog.LevelInfo, "request completed", "request_id", req.RequestID)
	return jsonResponse(http.StatusOK, OutcomeDelivered, SuccessResponse{
		Message:   MsgSuccess,
		RequestID: req.RequestID,
	})
}

// deliver posts text to the webhook. On failure it returns the 502 response
// and false.
func (h *Handler) deliver(ctx context.Context, requestID, text string) (Response, bool) {
	h.logger.Log(slog.LevelInfo, "posting to slack", "request_id", requestID)

	res, err := h.deliverer.Deliver(ctx, h.config.WebhookURL, notify.Message{Text: text})
	if err != nil {
		args := []any{"request_id", requestID, "error", err.Error()}
		if h.config.ErrorStack {
			args = append(args, "stack", string(debug.Stack()))
		}
		h.logger.Log(slog.LevelError, "slack post failed", args...)
		return errorResponse(http.StatusBadGateway, OutcomeDeliveryFailed, MsgSlackFailed), false
	}

	if !res.OK() {
		args := []any{
			"request_id", requestID,
			"status", res.StatusCode,
			"status_text", res.Status,
			"response_body", res.Body,
		}
		if res.BodyErr != nil {
			args = append(args, "response_body_error", res.BodyErr.Error())
		}
		h.logger.Log(slog.LevelError, "slack API error", args...)
		return errorResponse(http.StatusBadGateway, OutcomeDeliveryFailed, MsgSlackFailed), false
	}

	h.logger.Log(slog.LevelInfo, "posted to slack",
		"request_id", requestID,
		"slack_status", res.StatusCode,
	)
	return Response{}, true
}
