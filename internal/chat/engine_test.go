package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/foodiebot/orderchat/internal/cart"
	"github.com/foodiebot/orderchat/internal/domain"
)

type fakeResolver struct {
	fn func(ctx context.Context, message string) (*domain.Resolution, error)
}

func (f *fakeResolver) Resolve(ctx context.Context, message string) (*domain.Resolution, error) {
	return f.fn(ctx, message)
}

type fakeSubmitter struct {
	calls   int
	lastReq domain.SubmissionRequest
	result  *domain.SubmissionResult
	err     error
}

func (f *fakeSubmitter) Submit(ctx context.Context, req domain.SubmissionRequest) (*domain.SubmissionResult, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// resolveAdd answers every message with an add_to_cart resolution for
// the given items.
func resolveAdd(items ...domain.ResolvedItem) *fakeResolver {
	return &fakeResolver{fn: func(_ context.Context, _ string) (*domain.Resolution, error) {
		return &domain.Resolution{Action: domain.ActionAddToCart, Message: "Added!", Items: items}, nil
	}}
}

// scriptedResolver returns resolutions in order, one per call.
func scriptedResolver(t *testing.T, resolutions ...*domain.Resolution) *fakeResolver {
	t.Helper()
	i := 0
	return &fakeResolver{fn: func(_ context.Context, _ string) (*domain.Resolution, error) {
		if i >= len(resolutions) {
			t.Fatalf("resolver called %d times, only %d resolutions scripted", i+1, len(resolutions))
		}
		r := resolutions[i]
		i++
		return r, nil
	}}
}

func lastBotText(t *testing.T, turn *Turn) string {
	t.Helper()
	for i := len(turn.Messages) - 1; i >= 0; i-- {
		if turn.Messages[i].Sender == domain.SenderBot {
			return turn.Messages[i].Text
		}
	}
	t.Fatal("turn has no bot message")
	return ""
}

func TestEngine_Greeting(t *testing.T) {
	e := NewEngine(cart.New(), resolveAdd(), &fakeSubmitter{}, testLogger())

	log := e.Log()
	if len(log) != 1 {
		t.Fatalf("expected 1 message in new log, got %d", len(log))
	}
	if log[0].Sender != domain.SenderBot {
		t.Errorf("expected bot greeting, got sender %s", log[0].Sender)
	}
	if !strings.Contains(log[0].Text, "FoodieBot") {
		t.Errorf("unexpected greeting: %s", log[0].Text)
	}
}

func TestEngine_HandleMessage(t *testing.T) {
	t.Run("rejects empty message", func(t *testing.T) {
		e := NewEngine(cart.New(), resolveAdd(), &fakeSubmitter{}, testLogger())

		if _, err := e.HandleMessage(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("expected ErrEmptyMessage, got %v", err)
		}
		if len(e.Log()) != 1 {
			t.Errorf("empty message must not be logged, log has %d messages", len(e.Log()))
		}
	})

	t.Run("refuses reentrant message while busy", func(t *testing.T) {
		e := NewEngine(cart.New(), nil, &fakeSubmitter{}, testLogger())
		e.resolver = &fakeResolver{fn: func(ctx context.Context, _ string) (*domain.Resolution, error) {
			if _, err := e.HandleMessage(ctx, "second"); !errors.Is(err, ErrBusy) {
				t.Errorf("expected ErrBusy for reentrant message, got %v", err)
			}
			return &domain.Resolution{Action: domain.ActionNone, Message: "ok"}, nil
		}}

		if _, err := e.HandleMessage(context.Background(), "first"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Busy() {
			t.Error("engine must not stay busy after the turn")
		}
	})

	t.Run("adds resolved items to the cart", func(t *testing.T) {
		c := cart.New()
		e := NewEngine(c, resolveAdd(
			domain.ResolvedItem{ID: 1, Name: "Veg Burger", Price: 149, Quantity: 2},
			domain.ResolvedItem{ID: 7, Name: "Coke", Price: 49, Quantity: 1},
		), &fakeSubmitter{}, testLogger())

		turn, err := e.HandleMessage(context.Background(), "2 veg burgers and a coke")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if turn.Action != "add_to_cart" {
			t.Errorf("expected action add_to_cart, got %s", turn.Action)
		}
		if got := c.Count(); got != 3 {
			t.Errorf("expected 3 items in cart, got %d", got)
		}
		if got := c.Total(); got != 347 {
			t.Errorf("expected total 347, got %.2f", got)
		}
		if len(turn.Messages) != 2 {
			t.Fatalf("expected user+bot messages, got %d", len(turn.Messages))
		}
		if turn.Messages[0].Sender != domain.SenderUser {
			t.Error("turn must start with the user message")
		}
	})

	t.Run("resolver failure becomes an apology, not an error", func(t *testing.T) {
		e := NewEngine(cart.New(), &fakeResolver{fn: func(_ context.Context, _ string) (*domain.Resolution, error) {
			return nil, errors.New("resolver down")
		}}, &fakeSubmitter{}, testLogger())

		turn, err := e.HandleMessage(context.Background(), "order a pizza")
		if err != nil {
			t.Fatalf("service failure must not escape: %v", err)
		}
		if turn.Action != "resolver_error" {
			t.Errorf("expected action resolver_error, got %s", turn.Action)
		}
		if got := lastBotText(t, turn); got != serviceErrorText {
			t.Errorf("unexpected reply: %s", got)
		}
	})

	t.Run("unknown action falls back to the resolver message", func(t *testing.T) {
		suggestions := []domain.Suggestion{{ID: 3, Name: "Margherita Pizza", Price: 299}}
		e := NewEngine(cart.New(), &fakeResolver{fn: func(_ context.Context, _ string) (*domain.Resolution, error) {
			return &domain.Resolution{Action: domain.ActionNone, Message: "Here are some ideas", Suggestions: suggestions}, nil
		}}, &fakeSubmitter{}, testLogger())

		turn, err := e.HandleMessage(context.Background(), "what do you have")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if turn.Action != "none" {
			t.Errorf("expected action none, got %s", turn.Action)
		}
		bot := turn.Messages[len(turn.Messages)-1]
		if len(bot.Suggestions) != 1 || bot.Suggestions[0].Name != "Margherita Pizza" {
			t.Errorf("expected suggestions to be carried through, got %+v", bot.Suggestions)
		}
	})

	t.Run("place order with empty cart re-prompts", func(t *testing.T) {
		sub := &fakeSubmitter{}
		e := NewEngine(cart.New(), scriptedResolver(t,
			&domain.Resolution{Action: domain.ActionPlaceOrder, Message: "Let's go"},
		), sub, testLogger())

		turn, err := e.HandleMessage(context.Background(), "place order")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := lastBotText(t, turn); got != emptyCartText {
			t.Errorf("unexpected reply: %s", got)
		}

		// No checkout session: the next message goes back to the resolver.
		if e.session != nil {
			t.Error("empty cart must not start a checkout")
		}
	})
}

// runCheckout walks the engine from "place order" to the confirm step.
func runCheckout(t *testing.T, e *Engine) {
	t.Helper()
	steps := []string{"place order", "Asha Rao", "9876543210", "12 MG Road, Bengaluru", "1"}
	for _, msg := range steps {
		if _, err := e.HandleMessage(context.Background(), msg); err != nil {
			t.Fatalf("checkout step %q failed: %v", msg, err)
		}
	}
}

func TestEngine_Checkout(t *testing.T) {
	newCheckoutEngine := func(t *testing.T, sub *fakeSubmitter, opts ...Option) (*Engine, *cart.Cart) {
		t.Helper()
		c := cart.New()
		c.Add(domain.CartLine{ID: 1, Name: "Veg Burger", UnitPrice: 149}, 2)
		c.Add(domain.CartLine{ID: 7, Name: "Coke", UnitPrice: 49}, 1)

		resolver := &fakeResolver{fn: func(_ context.Context, _ string) (*domain.Resolution, error) {
			return &domain.Resolution{Action: domain.ActionPlaceOrder}, nil
		}}
		return NewEngine(c, resolver, sub, testLogger(), opts...), c
	}

	t.Run("happy path places the order exactly once", func(t *testing.T) {
		sub := &fakeSubmitter{result: &domain.SubmissionResult{
			OrderID:     "ord-1",
			TotalAmount: 347,
			CreatedAt:   time.Now().UTC(),
			Status:      domain.OrderStatusConfirmed,
		}}
		e, c := newCheckoutEngine(t, sub, WithNavigateDelay(10*time.Millisecond))

		runCheckout(t, e)

		turn, err := e.HandleMessage(context.Background(), "yes")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if sub.calls != 1 {
			t.Fatalf("expected exactly one submission, got %d", sub.calls)
		}
		if sub.lastReq.OrderType != domain.OrderTypeChatbot {
			t.Errorf("expected order_type ai_chatbot, got %s", sub.lastReq.OrderType)
		}
		if sub.lastReq.DeliveryAddress != "12 MG Road, Bengaluru" {
			t.Errorf("unexpected delivery address: %s", sub.lastReq.DeliveryAddress)
		}
		if len(sub.lastReq.Items) != 2 {
			t.Fatalf("expected 2 submission items, got %d", len(sub.lastReq.Items))
		}
		if sub.lastReq.Items[0].ID != 1 || sub.lastReq.Items[0].Quantity != 2 {
			t.Errorf("unexpected first item: %+v", sub.lastReq.Items[0])
		}

		if turn.PlacedOrder == nil {
			t.Fatal("expected PlacedOrder on the confirming turn")
		}
		if turn.PlacedOrder.OrderID != "ord-1" {
			t.Errorf("unexpected order id: %s", turn.PlacedOrder.OrderID)
		}
		if turn.PlacedOrder.CustomerName != "Asha Rao" || turn.PlacedOrder.PaymentMethod != "Cash on Delivery" {
			t.Errorf("unexpected placed order details: %+v", turn.PlacedOrder)
		}

		if c.Count() != 0 {
			t.Error("cart must be cleared after a successful order")
		}
		if e.LastOrder() == nil || e.LastOrder().OrderID != "ord-1" {
			t.Error("last order must be retained for the session")
		}

		select {
		case <-e.Navigate():
		case <-time.After(time.Second):
			t.Fatal("expected navigate signal after the delay")
		}

		// One-shot: no second signal for the same order.
		select {
		case <-e.Navigate():
			t.Fatal("navigate must fire at most once per order")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("invalid details re-prompt without advancing", func(t *testing.T) {
		sub := &fakeSubmitter{result: &domain.SubmissionResult{OrderID: "ord-2"}}
		e, _ := newCheckoutEngine(t, sub)

		if _, err := e.HandleMessage(context.Background(), "place order"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		reprompts := []struct {
			input string
			reply string
		}{
			{"A", invalidNameText},
			{"Asha Rao", ""}, // advances to phone
			{"12345", invalidPhoneText},
			{"98765 43210", ""}, // spaces are tolerated, advances to address
			{"abc", invalidAddressText},
			{"12 MG Road, Bengaluru", ""}, // advances to payment
			{"7", invalidPaymentText},
			{"upi", ""}, // advances to confirm
			{"maybe", confirmRepromptText},
		}

		for _, rp := range reprompts {
			turn, err := e.HandleMessage(context.Background(), rp.input)
			if err != nil {
				t.Fatalf("step %q failed: %v", rp.input, err)
			}
			if rp.reply != "" {
				if got := lastBotText(t, turn); got != rp.reply {
					t.Errorf("input %q: expected re-prompt %q, got %q", rp.input, rp.reply, got)
				}
			}
		}

		if sub.calls != 0 {
			t.Errorf("no submission expected yet, got %d", sub.calls)
		}
		if e.session == nil || e.session.step != stepConfirm {
			t.Error("session must still be waiting at the confirm step")
		}
		if e.session.phone != "9876543210" {
			t.Errorf("expected normalized phone, got %q", e.session.phone)
		}
		if e.session.payment != "UPI / GPay" {
			t.Errorf("unexpected payment method: %q", e.session.payment)
		}
	})

	t.Run("cancel keeps the cart", func(t *testing.T) {
		sub := &fakeSubmitter{}
		e, c := newCheckoutEngine(t, sub)

		runCheckout(t, e)

		turn, err := e.HandleMessage(context.Background(), "no")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := lastBotText(t, turn); got != cancelledText {
			t.Errorf("unexpected reply: %s", got)
		}
		if sub.calls != 0 {
			t.Errorf("cancelled checkout must not submit, got %d calls", sub.calls)
		}
		if c.Count() != 3 {
			t.Errorf("cart must survive cancellation, got count %d", c.Count())
		}
		if e.session != nil {
			t.Error("session must be discarded on cancel")
		}
	})

	t.Run("cart changed during checkout aborts submission", func(t *testing.T) {
		sub := &fakeSubmitter{}
		e, c := newCheckoutEngine(t, sub)

		runCheckout(t, e)

		// The cart changes out from under the frozen snapshot.
		c.Add(domain.CartLine{ID: 3, Name: "Margherita Pizza", UnitPrice: 299}, 1)

		turn, err := e.HandleMessage(context.Background(), "yes")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := lastBotText(t, turn); got != staleCartText {
			t.Errorf("unexpected reply: %s", got)
		}
		if sub.calls != 0 {
			t.Errorf("stale cart must not submit, got %d calls", sub.calls)
		}
		if e.session != nil {
			t.Error("session must be discarded on stale cart")
		}
		if c.Count() != 4 {
			t.Errorf("cart must be left untouched, got count %d", c.Count())
		}
	})

	t.Run("quantity change is also stale", func(t *testing.T) {
		sub := &fakeSubmitter{}
		e, c := newCheckoutEngine(t, sub)

		runCheckout(t, e)
		c.SetQuantity(1, 5)

		turn, err := e.HandleMessage(context.Background(), "yes")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := lastBotText(t, turn); got != staleCartText {
			t.Errorf("unexpected reply: %s", got)
		}
		if sub.calls != 0 {
			t.Errorf("stale cart must not submit, got %d calls", sub.calls)
		}
	})

	t.Run("submission failure keeps the cart and clears the session", func(t *testing.T) {
		sub := &fakeSubmitter{err: errors.New("orders service down")}
		e, c := newCheckoutEngine(t, sub)

		runCheckout(t, e)

		turn, err := e.HandleMessage(context.Background(), "yes")
		if err != nil {
			t.Fatalf("service failure must not escape: %v", err)
		}
		if got := lastBotText(t, turn); got != submitFailedText {
			t.Errorf("unexpected reply: %s", got)
		}
		if c.Count() != 3 {
			t.Errorf("cart must survive a failed submission, got count %d", c.Count())
		}
		if e.LastOrder() != nil {
			t.Error("failed submission must not record a last order")
		}
		if e.session != nil {
			t.Error("session must be discarded after a failed submission")
		}
	})
}

func TestEngine_NavigateStop(t *testing.T) {
	sub := &fakeSubmitter{result: &domain.SubmissionResult{OrderID: "ord-3", TotalAmount: 347}}
	c := cart.New()
	c.Add(domain.CartLine{ID: 1, Name: "Veg Burger", UnitPrice: 149}, 2)
	resolver := &fakeResolver{fn: func(_ context.Context, _ string) (*domain.Resolution, error) {
		return &domain.Resolution{Action: domain.ActionPlaceOrder}, nil
	}}
	e := NewEngine(c, resolver, sub, testLogger(), WithNavigateDelay(30*time.Millisecond))

	runCheckout(t, e)
	if _, err := e.HandleMessage(context.Background(), "yes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e.Stop()

	select {
	case <-e.Navigate():
		t.Fatal("stopped engine must not deliver the navigate signal")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEngine_LogIsACopy(t *testing.T) {
	e := NewEngine(cart.New(), resolveAdd(), &fakeSubmitter{}, testLogger())

	log := e.Log()
	log[0].Text = "tampered"

	if e.Log()[0].Text == "tampered" {
		t.Error("Log must return an independent copy")
	}
}

func TestEngine_OpenFlag(t *testing.T) {
	e := NewEngine(cart.New(), resolveAdd(), &fakeSubmitter{}, testLogger())

	if e.IsOpen() {
		t.Error("new engine must start closed")
	}
	e.SetOpen(true)
	if !e.IsOpen() {
		t.Error("expected open after SetOpen(true)")
	}
	e.SetOpen(false)
	if e.IsOpen() {
		t.Error("expected closed after SetOpen(false)")
	}
}
