package bot

import (
	"fmt"

	"smmpanel/src/connectors"
	"smmpanel/src/model"
)

const (
	callbackConfirm = "confirm_order"
	callbackCancel  = "cancel_order"

	welcomeText = "👋 Welcome to the SMM panel bot!\n\n" +
		"Use:\n" +
		"• `/order` to place a new order\n" +
		"• `/status <id>` to check an order\n" +
		"• `/balance` to check your panel balance\n" +
		"• `/setkey <your_key>` to set your panel API key"

	askLinkText        = "🔗 Please send the link for your order:"
	askQuantityText    = "📦 Got it! Now send the *quantity*:"
	invalidNumberText  = "❗ Please enter a valid number."
	cancelledText      = "❌ Order cancelled."
	placingText        = "⏳ Placing your order..."
	placeFailedText    = "❗ Failed to place order. Please try again."
	keyUpdatedText     = "✅ Panel API key updated successfully!"
	keyInvalidText     = "❌ That does not look like a valid panel API key."
	keyFailedText      = "❌ Failed to update panel key."
	setKeyUsageText    = "Usage: `/setkey <your_key>`"
	balanceFailedText  = "⚠️ Could not retrieve balance."
	statusUsageText    = "Usage: `/status <order id>`"
	statusNotFoundText = "❓ Order not found."
	statusFailedText   = "⚠️ Could not retrieve order status."

	parseModeMarkdown = "Markdown"
)

func confirmText(link string, quantity int64) string {
	return fmt.Sprintf("Confirm your order:\n\n🔗 Link: %s\n📦 Quantity: %d", link, quantity)
}

func confirmKeyboard() *connectors.InlineKeyboardMarkup {
	return &connectors.InlineKeyboardMarkup{InlineKeyboard: [][]connectors.InlineKeyboardButton{
		{{Text: "✅ Confirm", CallbackData: callbackConfirm}},
		{{Text: "❌ Cancel", CallbackData: callbackCancel}},
	}}
}

func placedText(order model.Order) string {
	return fmt.Sprintf("✅ Order placed!\n\n🆔 ID: %s\n📦 Status: %s", order.ID, order.Status)
}

func balanceText(b *model.Balance) string {
	return fmt.Sprintf("💰 Balance: %s %s", b.Balance.String(), b.Currency)
}

func lookupText(lookup model.Order, upstream *model.OrderStatusResponse) string {
	text := fmt.Sprintf("🆔 ID: %s\n📦 Status: %s", lookup.ID, lookup.Status)
	if lookup.HasUpstreamID() {
		text += fmt.Sprintf("\n🔢 Panel order: %s", lookup.UpstreamID())
	}
	if upstream != nil {
		if upstream.MappedStatus != "" {
			text += fmt.Sprintf("\n🌐 Panel status: %s", upstream.MappedStatus)
		}
		if upstream.Remains != "" {
			text += fmt.Sprintf("\n⏱ Remains: %s", upstream.Remains)
		}
	}
	if lookup.Status == model.OrderStatusError && lookup.Error != "" {
		text += "\n❗ " + lookup.Error
	}
	return text
}
