package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 4 * time.Second

	defaultTelegramAPIURL = "https://api.telegram.org"
	telegramTimeout       = 10 * time.Second
)

// -----------------------------
// TELEGRAM TYPES
// -----------------------------

type TelegramChat struct {
	ID int64 `json:"id"`
}

type TelegramMessage struct {
	MessageID int64        `json:"message_id"`
	Chat      TelegramChat `json:"chat"`
	Text      string       `json:"text"`
}

type TelegramCallbackQuery struct {
	ID      string           `json:"id"`
	Data    string           `json:"data"`
	Message *TelegramMessage `json:"message,omitempty"`
}

// TelegramUpdate is one webhook delivery from the Bot API.
type TelegramUpdate struct {
	UpdateID      int64                  `json:"update_id"`
	Message       *TelegramMessage       `json:"message,omitempty"`
	CallbackQuery *TelegramCallbackQuery `json:"callback_query,omitempty"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// OutgoingMessage is the sendMessage payload.
type OutgoingMessage struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// -----------------------------
// CLIENT
// -----------------------------

type TelegramClient struct {
	token string
	http  *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

func NewTelegramClient(token, apiURL string) *TelegramClient {
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultTelegramAPIURL
	}
	apiURL = strings.TrimRight(apiURL, "/")

	httpClient := resty.New().
		SetBaseURL(apiURL + "/bot" + token).
		SetTimeout(telegramTimeout).
		SetRetryCount(defaultRetryAttempts-1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &TelegramClient{
		token: token,
		http:  httpClient,
	}
}

// Token returns the bot token used for webhook routing.
func (c *TelegramClient) Token() string {
	return c.token
}

func (c *TelegramClient) call(ctx context.Context, method string, payload interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post("/" + method)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}

	var parsed telegramResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return fmt.Errorf("telegram %s: HTTP %d: %s", method, resp.StatusCode(), string(resp.Body()))
	}
	if !parsed.OK {
		return fmt.Errorf("telegram %s: %s", method, parsed.Description)
	}

	logger.WithFields(map[string]interface{}{
		"connector": "TelegramClient",
		"method":    method,
	}).Debug("Telegram call succeeded")

	return nil
}

// SendMessage delivers a message to a chat.
func (c *TelegramClient) SendMessage(ctx context.Context, msg OutgoingMessage) error {
	return c.call(ctx, "sendMessage", msg)
}

// AnswerCallbackQuery acknowledges an inline keyboard press.
func (c *TelegramClient) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]string{"callback_query_id": callbackID})
}

// SetWebhook points the bot at the given public URL.
func (c *TelegramClient) SetWebhook(ctx context.Context, url string) error {
	return c.call(ctx, "setWebhook", map[string]string{"url": url})
}
