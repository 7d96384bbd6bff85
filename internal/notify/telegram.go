package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTelegramAPIURL = "https://api.telegram.org"

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	APIURL  string
	Token   string
	ChatID  string
	Timeout time.Duration
}

// TelegramSender posts messages through the Bot API sendMessage method.
type TelegramSender struct {
	endpoint   string
	chatID     string
	token      string
	httpClient *http.Client
}

func NewTelegramSender(cfg TelegramConfig) (*TelegramSender, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultTelegramAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &TelegramSender{
		endpoint: apiURL + "/bot" + cfg.Token + "/sendMessage",
		chatID:   cfg.ChatID,
		token:    cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}, nil
}

// Send issues one GET sendMessage call. Any 2xx response is success; the
// body is not interpreted.
func (s *TelegramSender) Send(ctx context.Context, message string) error {
	query := url.Values{}
	query.Set("chat_id", s.chatID)
	query.Set("text", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", s.redact(err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", s.redact(err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send message: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// redact strips the bot token from URL errors.
func (s *TelegramSender) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, s.token, "<redacted>")
	}
	return err
}
