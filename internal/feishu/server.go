package feishu

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// EventHandler processes a parsed message event. It runs on its own
// goroutine so slow pipelines never block the webhook response.
type EventHandler func(event MessageEvent)

// MessageEvent is an incoming chat message addressed to the bot.
type MessageEvent struct {
	MessageID string
	ChatID    string
	Text      string
}

// Server receives Feishu event callbacks over HTTP. The handler always
// responds 200 immediately; message events are dispatched asynchronously.
type Server struct {
	encryptKey string
	handler    EventHandler
	logger     zerolog.Logger
}

// NewServer creates a webhook server. An empty encryptKey disables
// signature verification.
func NewServer(encryptKey string, handler EventHandler, logger zerolog.Logger) *Server {
	return &Server{
		encryptKey: encryptKey,
		handler:    handler,
		logger:     logger.With().Str("component", "webhook").Logger(),
	}
}

type eventEnvelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Header    struct {
		EventType string `json:"event_type"`
	} `json:"header"`
	Event struct {
		Message struct {
			MessageID string `json:"message_id"`
			ChatID    string `json:"chat_id"`
			Content   string `json:"content"`
		} `json:"message"`
	} `json:"event"`
}

type textContent struct {
	Text string `json:"text"`
}

// ServeHTTP implements http.Handler for the event callback endpoint.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read request body")
		w.WriteHeader(http.StatusOK)
		return
	}

	if !s.verifySignature(r, body) {
		s.logger.Warn().Msg("Webhook signature mismatch, event dropped")
		w.WriteHeader(http.StatusOK)
		return
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to decode event payload")
		w.WriteHeader(http.StatusOK)
		return
	}

	if envelope.Type == "url_verification" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"challenge": envelope.Challenge})
		return
	}

	if envelope.Header.EventType == "im.message.receive_v1" {
		event := MessageEvent{
			MessageID: envelope.Event.Message.MessageID,
			ChatID:    envelope.Event.Message.ChatID,
		}
		var content textContent
		if err := json.Unmarshal([]byte(envelope.Event.Message.Content), &content); err == nil {
			event.Text = content.Text
		}

		s.logger.Info().Str("chat_id", event.ChatID).Msg("Message event received")
		if s.handler != nil {
			go s.handler(event)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// verifySignature checks the X-Lark-Signature header. The signature is
// hex(HMAC-SHA256(key, timestamp + nonce + key + body)).
func (s *Server) verifySignature(r *http.Request, body []byte) bool {
	if s.encryptKey == "" {
		return true
	}

	timestamp := r.Header.Get("X-Lark-Request-Timestamp")
	nonce := r.Header.Get("X-Lark-Request-Nonce")
	signature := r.Header.Get("X-Lark-Signature")

	mac := hmac.New(sha256.New, []byte(s.encryptKey))
	mac.Write([]byte(timestamp))
	mac.Write([]byte(nonce))
	mac.Write([]byte(s.encryptKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
