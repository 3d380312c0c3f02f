// Package notify delivers operator-facing messages. Delivery is best-effort:
// a notification must never block or fail a monitoring cycle.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"golang.org/x/time/rate"
)

// Notifier mirrors engine state transitions to a human. Errors are logged,
// never propagated.
type Notifier interface {
	Send(ctx context.Context, message string)
}

const (
	telegramAPIBase = "https://api.telegram.org"
	sendTimeout     = 10 * time.Second
)

// TelegramNotifier sends messages to a Telegram chat. Every message is also
// mirrored to the console so the daemon log stays a complete record even when
// the Telegram API is down.
type TelegramNotifier struct {
	botToken   string
	chatID     string
	apiBase    string
	httpClient *http.Client

	// limiter keeps us under the Telegram per-chat message rate.
	limiter *rate.Limiter
}

// NewTelegramNotifier creates a Telegram-backed notifier.
func NewTelegramNotifier(botToken, chatID string) (*TelegramNotifier, error) {
	if botToken == "" || chatID == "" {
		return nil, fmt.Errorf("telegram bot token and chat id are required")
	}
	return &TelegramNotifier{
		botToken:   botToken,
		chatID:     chatID,
		apiBase:    telegramAPIBase,
		httpClient: &http.Client{Timeout: sendTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 5),
	}, nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Send implements Notifier. The console mirror happens first so it cannot be
// lost to a transport failure.
func (n *TelegramNotifier) Send(ctx context.Context, message string) {
	color.New(color.FgCyan).Printf("[TELEGRAM] ")
	fmt.Println(message)

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := n.limiter.Wait(sendCtx); err != nil {
		fmt.Printf("Notify: rate limiter wait aborted: %v\n", err)
		return
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    n.chatID,
		Text:      message,
		ParseMode: "Markdown",
	})
	if err != nil {
		fmt.Printf("Notify: failed to encode message: %v\n", err)
		return
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Notify: failed to build request: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		fmt.Printf("Notify: telegram send failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fmt.Printf("Notify: telegram API returned %s\n", resp.Status)
	}
}

// LogNotifier writes messages to the console only. Used in tests and tooling
// contexts where Telegram is not wired up.
type LogNotifier struct{}

// Send implements Notifier.
func (LogNotifier) Send(_ context.Context, message string) {
	fmt.Printf("[NOTIFY] %s\n", message)
}
