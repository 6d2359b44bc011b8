package handler

import (
	"encoding/json"
	"net/http"

	"github.com/matchwatch/matchwatch/internal/api/respond"
	"github.com/matchwatch/matchwatch/internal/notify"
)

type testNotificationRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Token     string   `json:"token,omitempty"`
	Condition string   `json:"condition,omitempty"`
	Topic     string   `json:"topic,omitempty"`
	Topics    []string `json:"topics,omitempty"`
}

// SendTestNotification dispatches a test message through every channel.
// @Summary Send test notification
// @Description Sends a test message to the given token, condition, topic, or topic set.
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body testNotificationRequest true "Test message"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/v1/notifications/test [post]
func (h *Handler) SendTestNotification(w http.ResponseWriter, r *http.Request) {
	var req testNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Malformed JSON body", err.Error())
		return
	}
	if req.Token == "" && req.Condition == "" && req.Topic == "" && len(req.Topics) == 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_TARGET",
			"One of token, condition, topic, or topics is required")
		return
	}
	if req.Title == "" {
		req.Title = "MatchWatch test"
	}

	result := h.dispatcher.SendTest(r.Context(), req.Title, req.Body, notify.Target{
		Token:     req.Token,
		Condition: req.Condition,
		Topic:     req.Topic,
		Topics:    req.Topics,
	})
	if !result.Delivered {
		msg := "No channel delivered the message"
		if result.Err != nil {
			msg = result.Err.Error()
		}
		respond.WriteError(w, http.StatusBadGateway, "DELIVERY_FAILED", msg)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"delivered": true,
		"channels":  h.dispatcher.Stats(),
	})
}
