package chat

import (
	"fmt"
	"strings"

	"github.com/foodiebot/orderchat/internal/domain"
)

// User-facing copy mirrors the FoodieBot web assistant.
const (
	greetingText = "Hello! 👋 I'm FoodieBot! I can help you order food.\n\n" +
		"Try saying:\n• \"Order 2 veg burgers and one coke\"\n• \"Show menu\"\n• \"Place order\""

	emptyCartText = "🛒 Your cart is empty! Add some items first.\n\nTry: \"Order 2 burgers and a coke\""

	serviceErrorText = "Oops! Something went wrong. Please try again in a moment."

	invalidNameText = "Please enter a valid name (at least 2 characters).\n\n👤 What's your name?"

	invalidPhoneText = "Please enter a valid 10-digit phone number.\n\n📱 Your phone number?"

	addressPromptText = "📍 What's your delivery address?"

	invalidAddressText = "Please enter a complete delivery address.\n\n📍 Your delivery address?"

	paymentOptionsText = "💳 Choose payment method:\n\n" +
		"1️⃣ Cash on Delivery\n2️⃣ UPI / GPay\n3️⃣ Credit/Debit Card\n\n" +
		"Just type 1, 2, or 3"

	invalidPaymentText = "Please type 1, 2, or 3 to choose a payment method.\n\n" +
		"1️⃣ Cash on Delivery\n2️⃣ UPI / GPay\n3️⃣ Credit/Debit Card"

	confirmRepromptText = "Please type \"yes\" to confirm or \"no\" to cancel."

	cancelledText = "❌ Order cancelled. Your items are still in your cart.\n\n" +
		"Say \"place order\" when you're ready!"

	staleCartText = "⚠️ Your cart changed while we were collecting your details, so I didn't place the order.\n\n" +
		"Please review your cart and say \"place order\" to start again."

	submitFailedText = "❌ Oops! Something went wrong placing your order. Please try again."
)

func cartSummary(lines []domain.CartLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  • %dx %s — ₹%.0f", l.Quantity, l.Name, l.Subtotal())
	}
	return b.String()
}

func viewCartText(message string, lines []domain.CartLine, total float64) string {
	if len(lines) == 0 {
		return message + "\n\nYour cart is empty. Start ordering!"
	}
	return fmt.Sprintf("%s\n\n%s\n\nTotal: ₹%.2f", message, cartSummary(lines), total)
}

func checkoutIntroText(lines []domain.CartLine, total float64) string {
	return fmt.Sprintf(
		"🛒 Your order summary:\n\n%s\n\n💰 Total: ₹%.2f\n\n"+
			"Let's get your details to place the order!\n\n👤 What's your name?",
		cartSummary(lines), total)
}

func phonePromptText(name string) string {
	return fmt.Sprintf("Nice to meet you, %s! 😊\n\n📱 What's your phone number?", name)
}

func confirmationText(s *checkoutSession) string {
	var total float64
	for _, l := range s.snapshot {
		total += l.Subtotal()
	}
	return fmt.Sprintf(
		"📋 Order Confirmation:\n\n%s\n\n💰 Total: ₹%.2f\n\n"+
			"👤 Name: %s\n📱 Phone: %s\n📍 Address: %s\n💳 Payment: %s\n\n"+
			"Type \"yes\" to confirm or \"no\" to cancel",
		cartSummary(s.snapshot), total, s.name, s.phone, s.address, s.payment)
}

func successText(result *domain.SubmissionResult, s *checkoutSession) string {
	return fmt.Sprintf(
		"🎉 Order Placed Successfully!\n\n📦 Order #%s\n💰 Total: ₹%.2f\n"+
			"📍 Delivering to: %s\n💳 Payment: %s\n\n"+
			"⏱️ Estimated delivery: 25-35 mins\n\nThank you, %s! Enjoy your meal! 🍽️",
		result.OrderID, result.TotalAmount, s.address, s.payment, s.name)
}
