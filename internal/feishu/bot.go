// Package feishu delivers analysis reports to Feishu chats and receives
// command events over the event webhook.
package feishu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	apperrors "portfolio-analyst/internal/errors"
)

const defaultBaseURL = "https://open.feishu.cn/open-apis"

// tokenExpiryMargin is subtracted from the advertised token lifetime so a
// token is refreshed before Feishu actually rejects it.
const tokenExpiryMargin = 60 * time.Second

// TokenCache caches the tenant access token and refreshes it on demand.
// It is safe for concurrent use.
type TokenCache struct {
	mu        sync.Mutex
	value     string
	expiresAt time.Time

	fetch func(ctx context.Context) (string, int, error)
	now   func() time.Time
}

// NewTokenCache creates a cache backed by the given fetch function, which
// returns a fresh token and its lifetime in seconds.
func NewTokenCache(fetch func(ctx context.Context) (string, int, error)) *TokenCache {
	return &TokenCache{fetch: fetch, now: time.Now}
}

// Token returns the cached token, refreshing it when absent or within the
// expiry margin.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value != "" && c.now().Before(c.expiresAt) {
		return c.value, nil
	}

	token, expireSeconds, err := c.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrTokenRefresh, err)
	}

	c.value = token
	c.expiresAt = c.now().Add(time.Duration(expireSeconds)*time.Second - tokenExpiryMargin)
	return c.value, nil
}

// Bot sends messages to Feishu on behalf of a custom app.
type Bot struct {
	client *resty.Client
	tokens *TokenCache
	logger zerolog.Logger
}

// BotConfig holds the app credentials and transport settings for a Bot.
type BotConfig struct {
	AppID     string
	AppSecret string
	BaseURL   string // test override; empty means the public endpoint
	Timeout   time.Duration
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

type sendResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// NewBot creates a Bot with its own token cache.
func NewBot(cfg BotConfig, logger zerolog.Logger) *Bot {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	b := &Bot{
		client: client,
		logger: logger.With().Str("component", "feishu").Logger(),
	}
	b.tokens = NewTokenCache(func(ctx context.Context) (string, int, error) {
		return b.fetchToken(ctx, cfg.AppID, cfg.AppSecret)
	})
	return b
}

func (b *Bot) fetchToken(ctx context.Context, appID, appSecret string) (string, int, error) {
	var result tokenResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"app_id": appID, "app_secret": appSecret}).
		SetResult(&result).
		Post("/auth/v3/tenant_access_token/internal")
	if err != nil {
		return "", 0, err
	}
	if resp.IsError() {
		return "", 0, fmt.Errorf("token endpoint returned status %d", resp.StatusCode())
	}
	if result.Code != 0 {
		return "", 0, fmt.Errorf("token endpoint returned code %d: %s", result.Code, result.Msg)
	}
	return result.TenantAccessToken, result.Expire, nil
}

// SendText sends a plain text message to a chat.
func (b *Bot) SendText(ctx context.Context, chatID, text string) error {
	content := fmt.Sprintf(`{"text":%s}`, jsonString(text))
	return b.send(ctx, "chat_id", chatID, "text", content)
}

// SendCard sends an interactive card to a chat.
func (b *Bot) SendCard(ctx context.Context, chatID string, card *Card) error {
	content, err := card.JSON()
	if err != nil {
		return fmt.Errorf("encoding card: %w", err)
	}
	return b.send(ctx, "chat_id", chatID, "interactive", content)
}

// ReplyText sends a plain text reply to a message.
func (b *Bot) ReplyText(ctx context.Context, messageID, text string) error {
	content := fmt.Sprintf(`{"text":%s}`, jsonString(text))
	return b.reply(ctx, messageID, "text", content)
}

// ReplyCard sends an interactive card reply to a message.
func (b *Bot) ReplyCard(ctx context.Context, messageID string, card *Card) error {
	content, err := card.JSON()
	if err != nil {
		return fmt.Errorf("encoding card: %w", err)
	}
	return b.reply(ctx, messageID, "interactive", content)
}

func (b *Bot) send(ctx context.Context, receiveIDType, receiveID, msgType, content string) error {
	token, err := b.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var result sendResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("receive_id_type", receiveIDType).
		SetBody(map[string]string{
			"receive_id": receiveID,
			"msg_type":   msgType,
			"content":    content,
		}).
		SetResult(&result).
		Post("/im/v1/messages")
	if err != nil {
		return fmt.Errorf("sending %s message: %w", msgType, err)
	}
	if resp.IsError() {
		return fmt.Errorf("message endpoint returned status %d", resp.StatusCode())
	}
	if result.Code != 0 {
		return fmt.Errorf("message endpoint returned code %d: %s", result.Code, result.Msg)
	}

	b.logger.Debug().Str("chat_id", receiveID).Str("msg_type", msgType).Msg("Message sent")
	return nil
}

func (b *Bot) reply(ctx context.Context, messageID, msgType, content string) error {
	token, err := b.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var result sendResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]string{
			"msg_type": msgType,
			"content":  content,
		}).
		SetResult(&result).
		Post(fmt.Sprintf("/im/v1/messages/%s/reply", messageID))
	if err != nil {
		return fmt.Errorf("replying with %s message: %w", msgType, err)
	}
	if resp.IsError() {
		return fmt.Errorf("reply endpoint returned status %d", resp.StatusCode())
	}
	if result.Code != 0 {
		return fmt.Errorf("reply endpoint returned code %d: %s", result.Code, result.Msg)
	}

	b.logger.Debug().Str("message_id", messageID).Str("msg_type", msgType).Msg("Reply sent")
	return nil
}
