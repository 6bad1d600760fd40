package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramMessenger sends messages through the Telegram Bot API.
type TelegramMessenger struct {
	bot  *tgbotapi.BotAPI
	chat tgbotapi.BaseChat
}

// NewTelegramMessenger authenticates the bot (getMe) and binds it to channel,
// which is either a numeric chat id such as -1001234567890 or an @username.
func NewTelegramMessenger(token, channel string, client *http.Client) (*TelegramMessenger, error) {
	return NewTelegramMessengerWithEndpoint(token, channel, tgbotapi.APIEndpoint, client)
}

// NewTelegramMessengerWithEndpoint is NewTelegramMessenger against a custom
// Bot API endpoint (a local Bot API server, or a test double).
func NewTelegramMessengerWithEndpoint(token, channel, endpoint string, client *http.Client) (*TelegramMessenger, error) {
	chat, err := parseChannel(channel)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = http.DefaultClient
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate Telegram bot: %w", err)
	}

	slog.Info("Connected to Telegram", "bot", bot.Self.UserName, "channel", channel)

	return &TelegramMessenger{bot: bot, chat: chat}, nil
}

func parseChannel(channel string) (tgbotapi.BaseChat, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return tgbotapi.BaseChat{}, errors.New("telegram channel is empty")
	}

	if strings.HasPrefix(channel, "@") {
		return tgbotapi.BaseChat{ChannelUsername: channel}, nil
	}

	id, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		return tgbotapi.BaseChat{}, fmt.Errorf("telegram channel %q is neither a numeric id nor an @username", channel)
	}
	return tgbotapi.BaseChat{ChatID: id}, nil
}

// Username is the bot's @handle as reported by getMe.
func (m *TelegramMessenger) Username() string {
	return m.bot.Self.UserName
}

func (m *TelegramMessenger) SendText(ctx context.Context, html string, linkPreview bool) error {
	if err := ctx.Err(); err != nil {
		return &SendError{Kind: KindOther, Op: "sendMessage", Err: err}
	}

	msg := tgbotapi.MessageConfig{
		BaseChat:              m.chat,
		Text:                  html,
		ParseMode:             tgbotapi.ModeHTML,
		DisableWebPagePreview: !linkPreview,
	}

	if _, err := m.bot.Send(msg); err != nil {
		return wrapTelegramError("sendMessage", err)
	}
	return nil
}

func (m *TelegramMessenger) SendPhoto(ctx context.Context, imageURL, htmlCaption string) error {
	if err := ctx.Err(); err != nil {
		return &SendError{Kind: KindOther, Op: "sendPhoto", Err: err}
	}

	photo := tgbotapi.PhotoConfig{
		BaseFile: tgbotapi.BaseFile{
			BaseChat: m.chat,
			File:     tgbotapi.FileURL(imageURL),
		},
		Caption:   htmlCaption,
		ParseMode: tgbotapi.ModeHTML,
	}

	if _, err := m.bot.Send(photo); err != nil {
		return wrapTelegramError("sendPhoto", err)
	}
	return nil
}

func wrapTelegramError(op string, err error) *SendError {
	code := 0

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	}

	kind := ClassifyError(err)
	if code == http.StatusTooManyRequests {
		kind = KindRateLimited
	}

	return &SendError{
		Kind: kind,
		Op:   op,
		Code: code,
		Err:  err,
	}
}
