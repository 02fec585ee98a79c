package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storymap-go/internal/models"
	"storymap-go/internal/push"
	"storymap-go/internal/store"
)

var (
	pushDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storymap_push_delivered_total",
		Help: "Webpush messages delivered to the subscription endpoint.",
	})
	pushFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storymap_push_failed_total",
		Help: "Webpush deliveries that failed.",
	})
)

// GetVAPIDKeyHandler returns the public VAPID key.
func (h *Handler) GetVAPIDKeyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.VAPIDPublicKey})
}

// SubscribePushHandler runs the subscription handshake. Each precondition
// failure maps to its own status and message so the view can explain what
// to do next.
func (h *Handler) SubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sub, err := h.Push.Subscribe(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, push.ErrUnsupported), errors.Is(err, push.ErrBlocked):
			status = http.StatusNotImplemented
		case errors.Is(err, push.ErrInsecureContext):
			status = http.StatusForbidden
		case errors.Is(err, push.ErrPermissionDenied), errors.Is(err, push.ErrPermissionDismissed):
			status = http.StatusForbidden
		case errors.Is(err, push.ErrWorkerNotReady):
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"error": true, "message": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"error": false, "subscription": sub})
}

// UnsubscribePushHandler removes the active subscription.
func (h *Handler) UnsubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Push.Unsubscribe(r.Context()); err != nil {
		http.Error(w, "Failed to unsubscribe", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"error": false})
}

// PushStatusHandler reports subscription presence. Never errors.
func (h *Handler) PushStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"error":      false,
		"subscribed": h.Push.IsSubscribed(r.Context()),
	})
}

// SendPushHandler delivers a webpush message to the mirrored subscription.
// This is how self-hosted deployments exercise the receive path end to end.
func (h *Handler) SendPushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	message, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	raw, ok, err := h.Store.GetSetting(r.Context(), store.SettingPushSubscription)
	if err != nil || !ok {
		http.Error(w, "No subscription on record", http.StatusNotFound)
		return
	}

	var sub models.PushSubscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		http.Error(w, "Stored subscription is corrupt", http.StatusInternalServerError)
		return
	}

	if err := h.SendPushNotification(message, sub); err != nil {
		pushFailed.Inc()
		log.Printf("Failed to send push to %s: %v", sub.Endpoint, err)
		http.Error(w, "Delivery failed", http.StatusBadGateway)
		return
	}
	pushDelivered.Inc()
	writeJSON(w, http.StatusOK, map[string]any{"error": false})
}

// SendPushNotification signs and sends one webpush message.
func (h *Handler) SendPushNotification(message []byte, sub models.PushSubscription) error {
	s := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}

	resp, err := webpush.SendNotification(message, s, &webpush.Options{
		Subscriber:      h.Subscriber,
		VAPIDPublicKey:  h.VAPIDPublicKey,
		VAPIDPrivateKey: h.VAPIDPrivateKey,
		TTL:             30,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// ReceivePushHandler is the delivery endpoint for this installation: the
// worker renders the payload into a notification. The body is authenticated
// with the shared-secret signature when one is configured.
func (h *Handler) ReceivePushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !validateSharedSecret(r) {
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	notification := h.Worker.HandlePush(payload)
	log.Printf("Push notification received: %s (%s)", notification.Title, notification.Tag)
	writeJSON(w, http.StatusOK, map[string]any{"error": false, "notification": notification})
}
