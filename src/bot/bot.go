package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"

	"smmpanel/src/cache"
	"smmpanel/src/connectors"
	"smmpanel/src/controller"
	"smmpanel/src/model"
)

// Sender is the part of the Telegram client the bot talks back through.
type Sender interface {
	SendMessage(ctx context.Context, msg connectors.OutgoingMessage) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

// Panel is the set of panel operations reachable from a chat.
type Panel interface {
	PlaceOrder(ctx context.Context, p model.PlaceOrderPayload) (*controller.PlacementResult, error)
	GetBalance(ctx context.Context, key string) (*model.Balance, error)
	GetOrderStatus(ctx context.Context, identifier string) (*controller.OrderLookup, error)
	UpdatePanelKey(ctx context.Context, panelKey string) error
}

// Bot drives the Telegram conversation: commands, the /order dialogue and
// its confirm/cancel keyboard. Dialogue state lives in a TTL store so it
// expires on its own when a user walks away.
type Bot struct {
	token     string
	sender    Sender
	panel     Panel
	states    stateStore
	serviceID model.FlexString
}

func New(token string, sender Sender, panel Panel, states cache.Store, config Config) *Bot {
	serviceID := strings.TrimSpace(config.DefaultServiceID)
	if serviceID == "" {
		serviceID = "1"
	}
	return &Bot{
		token:     token,
		sender:    sender,
		panel:     panel,
		states:    stateStore{store: states, ttl: config.StateTTL},
		serviceID: model.FlexString(serviceID),
	}
}

// HandleUpdate processes one webhook delivery. Replies that fail to send are
// logged; the returned error only reports state store failures.
func (b *Bot) HandleUpdate(ctx context.Context, update connectors.TelegramUpdate) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *connectors.TelegramMessage) error {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "/") {
		return b.handleCommand(ctx, chatID, text)
	}

	conv, err := b.states.load(ctx, chatID)
	if err != nil {
		return err
	}
	if conv == nil {
		return nil
	}

	switch conv.Step {
	case stepAwaitingLink:
		conv.Link = text
		conv.Step = stepAwaitingQuantity
		if err := b.states.save(ctx, chatID, *conv); err != nil {
			return err
		}
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: askQuantityText, ParseMode: parseModeMarkdown})

	case stepAwaitingQuantity:
		quantity, err := strconv.ParseInt(text, 10, 64)
		if err != nil || quantity <= 0 {
			b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: invalidNumberText})
			return nil
		}
		conv.Quantity = quantity
		conv.Step = stepAwaitingConfirmation
		if err := b.states.save(ctx, chatID, *conv); err != nil {
			return err
		}
		b.reply(ctx, connectors.OutgoingMessage{
			ChatID:      chatID,
			Text:        confirmText(conv.Link, conv.Quantity),
			ReplyMarkup: confirmKeyboard(),
		})
	}

	return nil
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, text string) error {
	fields := strings.Fields(text)
	command := fields[0]
	// "/order@SomeBot" in group chats
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	arg := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

	logger.WithFields(map[string]interface{}{
		"bot":     "telegram",
		"chat_id": chatID,
		"command": command,
	}).Debug("Bot command received")

	switch command {
	case "/start":
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: welcomeText, ParseMode: parseModeMarkdown})

	case "/order":
		if err := b.states.save(ctx, chatID, conversation{Step: stepAwaitingLink}); err != nil {
			return err
		}
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: askLinkText})

	case "/balance":
		balance, err := b.panel.GetBalance(ctx, "")
		if err != nil {
			logger.WithError(err).Warn("bot balance lookup failed")
			b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: balanceFailedText})
			return nil
		}
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: balanceText(balance)})

	case "/setkey":
		b.setKey(ctx, chatID, arg)

	case "/status":
		b.status(ctx, chatID, arg)
	}

	return nil
}

func (b *Bot) setKey(ctx context.Context, chatID int64, key string) {
	if key == "" {
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: setKeyUsageText, ParseMode: parseModeMarkdown})
		return
	}

	err := b.panel.UpdatePanelKey(ctx, key)
	switch {
	case err == nil:
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: keyUpdatedText})
	case errors.Is(err, controller.ErrInvalidPanelKey):
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: keyInvalidText})
	default:
		logger.WithError(err).Error("bot failed to update panel key")
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: keyFailedText})
	}
}

func (b *Bot) status(ctx context.Context, chatID int64, identifier string) {
	if identifier == "" {
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: statusUsageText, ParseMode: parseModeMarkdown})
		return
	}

	lookup, err := b.panel.GetOrderStatus(ctx, identifier)
	switch {
	case err == nil:
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: lookupText(lookup.Local, lookup.Status)})
	case errors.Is(err, controller.ErrOrderNotFound):
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: statusNotFoundText})
	default:
		logger.WithError(err).Warn("bot order status lookup failed")
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: statusFailedText})
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *connectors.TelegramCallbackQuery) error {
	defer b.answer(ctx, query.ID)

	if query.Message == nil {
		return nil
	}
	chatID := query.Message.Chat.ID

	conv, err := b.states.load(ctx, chatID)
	if err != nil {
		return err
	}
	if conv == nil {
		return nil
	}

	switch query.Data {
	case callbackCancel:
		if err := b.states.clear(ctx, chatID); err != nil {
			return err
		}
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: cancelledText})

	case callbackConfirm:
		if conv.Step != stepAwaitingConfirmation {
			return nil
		}
		// Clear before placing: a second tap must not place another order.
		if err := b.states.clear(ctx, chatID); err != nil {
			return err
		}
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: placingText})
		b.placeOrder(ctx, chatID, *conv)
	}

	return nil
}

func (b *Bot) placeOrder(ctx context.Context, chatID int64, conv conversation) {
	result, err := b.panel.PlaceOrder(ctx, model.PlaceOrderPayload{
		ServiceID: b.serviceID,
		Link:      conv.Link,
		Quantity:  conv.Quantity,
		ChatID:    &chatID,
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"bot":     "telegram",
			"chat_id": chatID,
		}).WithError(err).Warn("bot order placement failed")
		b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: placeFailedText})
		return
	}

	b.reply(ctx, connectors.OutgoingMessage{ChatID: chatID, Text: placedText(result.LocalOrder)})
}

func (b *Bot) reply(ctx context.Context, msg connectors.OutgoingMessage) {
	if err := b.sender.SendMessage(ctx, msg); err != nil {
		logger.WithField("chat_id", msg.ChatID).WithError(err).Warn("bot reply failed")
	}
}

func (b *Bot) answer(ctx context.Context, callbackID string) {
	if err := b.sender.AnswerCallbackQuery(ctx, callbackID); err != nil {
		logger.WithField("callback_id", callbackID).WithError(err).Warn("bot callback answer failed")
	}
}
