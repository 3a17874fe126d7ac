package chat

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/foodiebot/orderchat/internal/domain"
)

type checkoutStep string

const (
	stepName    checkoutStep = "name"
	stepPhone   checkoutStep = "phone"
	stepAddress checkoutStep = "address"
	stepPayment checkoutStep = "payment"
	stepConfirm checkoutStep = "confirm"
)

// checkoutSession exists only while a checkout is in progress. It is
// created on entering the flow and discarded on every terminal
// transition (success, cancellation, stale cart, submission failure).
type checkoutSession struct {
	step     checkoutStep
	name     string
	phone    string
	address  string
	payment  string
	snapshot []domain.CartLine
}

var paymentMethods = map[string]string{
	"1": "Cash on Delivery", "cod": "Cash on Delivery", "cash": "Cash on Delivery",
	"2": "UPI / GPay", "upi": "UPI / GPay", "gpay": "UPI / GPay",
	"3": "Credit/Debit Card", "card": "Credit/Debit Card", "credit": "Credit/Debit Card", "debit": "Credit/Debit Card",
}

// handleCheckoutStep advances the session by exactly one step, or
// re-prompts without a state change when the input fails its predicate.
func (e *Engine) handleCheckoutStep(ctx context.Context, text string) string {
	s := e.session
	action := "checkout_" + string(s.step)

	switch s.step {
	case stepName:
		name := strings.TrimSpace(text)
		if utf8.RuneCountInString(name) < 2 {
			e.appendBot(invalidNameText, nil)
			return action
		}
		s.name = name
		s.step = stepPhone
		e.appendBot(phonePromptText(name), nil)

	case stepPhone:
		phone := normalizePhone(text)
		if !validPhone(phone) {
			e.appendBot(invalidPhoneText, nil)
			return action
		}
		s.phone = phone
		s.step = stepAddress
		e.appendBot(addressPromptText, nil)

	case stepAddress:
		address := strings.TrimSpace(text)
		if utf8.RuneCountInString(address) < 5 {
			e.appendBot(invalidAddressText, nil)
			return action
		}
		s.address = address
		s.step = stepPayment
		e.appendBot(paymentOptionsText, nil)

	case stepPayment:
		method, ok := paymentMethods[strings.ToLower(strings.TrimSpace(text))]
		if !ok {
			e.appendBot(invalidPaymentText, nil)
			return action
		}
		s.payment = method
		s.step = stepConfirm
		e.appendBot(confirmationText(s), nil)

	case stepConfirm:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "yes", "y", "confirm":
			e.submitOrder(ctx)
		case "no", "n", "cancel":
			e.session = nil
			e.appendBot(cancelledText, nil)
		default:
			e.appendBot(confirmRepromptText, nil)
		}
	}

	return action
}

// submitOrder is the only place the order submission adapter is called,
// and it is reached at most once per checkout session.
func (e *Engine) submitOrder(ctx context.Context) {
	s := e.session
	live := e.cart.Snapshot()

	if !sameLines(live, s.snapshot) {
		e.session = nil
		e.logger.Warn("cart changed during checkout, submission aborted")
		e.appendBot(staleCartText, nil)
		return
	}

	items := make([]domain.SubmissionItem, 0, len(live))
	for _, l := range live {
		items = append(items, domain.SubmissionItem{ID: l.ID, Quantity: l.Quantity})
	}

	result, err := e.submitter.Submit(ctx, domain.SubmissionRequest{
		Items:           items,
		OrderType:       domain.OrderTypeChatbot,
		DeliveryAddress: s.address,
	})
	if err != nil {
		e.session = nil
		e.logger.Error("order submission failed", "error", err)
		e.appendBot(submitFailedText, nil)
		return
	}

	e.lastOrder = &domain.PlacedOrder{
		OrderID:       result.OrderID,
		Items:         live,
		TotalAmount:   result.TotalAmount,
		CustomerName:  s.name,
		Phone:         s.phone,
		Address:       s.address,
		PaymentMethod: s.payment,
		CreatedAt:     result.CreatedAt,
		Status:        result.Status,
	}
	e.cart.Clear()
	e.session = nil
	e.logger.Info("order placed via chat", "order_id", result.OrderID, "total", result.TotalAmount)
	e.appendBot(successText(result, s), nil)
	e.scheduleNavigate()
}

// sameLines reports whether two carts hold identical line items,
// quantities and unit prices, regardless of line order.
func sameLines(a, b []domain.CartLine) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[int64]domain.CartLine, len(b))
	for _, l := range b {
		byID[l.ID] = l
	}
	for _, l := range a {
		o, ok := byID[l.ID]
		if !ok || o.Quantity != l.Quantity || o.UnitPrice != l.UnitPrice {
			return false
		}
	}
	return true
}

func normalizePhone(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}

func validPhone(phone string) bool {
	if len(phone) < 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
