// Package chat implements the conversational ordering assistant: a
// per-session dialogue engine driving cart mutations and a sequential
// checkout flow, plus the HTTP surface that hosts it.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/foodiebot/orderchat/internal/cart"
	"github.com/foodiebot/orderchat/internal/domain"
)

var (
	ErrBusy         = errors.New("engine is busy")
	ErrEmptyMessage = errors.New("empty message")
)

// Resolver turns one free-text message into a structured cart action.
type Resolver interface {
	Resolve(ctx context.Context, message string) (*domain.Resolution, error)
}

// Submitter persists a finalized order and returns its identifier.
type Submitter interface {
	Submit(ctx context.Context, req domain.SubmissionRequest) (*domain.SubmissionResult, error)
}

const defaultNavigateDelay = 2 * time.Second

// Engine is a single-session cooperative state machine. It is not
// goroutine safe; the owning Session serializes all calls.
type Engine struct {
	cart      *cart.Cart
	resolver  Resolver
	submitter Submitter
	logger    *slog.Logger

	log       []domain.ChatMessage
	busy      bool
	open      bool
	session   *checkoutSession
	lastOrder *domain.PlacedOrder

	navigateDelay time.Duration
	navigate      chan struct{}
	navTimer      *time.Timer
}

type Option func(*Engine)

// WithNavigateDelay overrides the delay before the post-order navigate
// signal fires.
func WithNavigateDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.navigateDelay = d
	}
}

func NewEngine(c *cart.Cart, resolver Resolver, submitter Submitter, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cart:          c,
		resolver:      resolver,
		submitter:     submitter,
		logger:        logger,
		navigateDelay: defaultNavigateDelay,
		navigate:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.appendBot(greetingText, nil)
	return e
}

// Turn is the observable outcome of processing one user message.
type Turn struct {
	// Messages appended to the log during this turn, user message first.
	Messages []domain.ChatMessage
	// Action is the resolved action kind, or a checkout step tag when a
	// checkout session consumed the message.
	Action string
	// PlacedOrder is set when this turn completed an order submission.
	PlacedOrder *domain.PlacedOrder
}

// HandleMessage consumes one user message and appends the resulting bot
// replies to the log. Failures of the external services never escape:
// they are translated into bot messages and a safe state.
func (e *Engine) HandleMessage(ctx context.Context, text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if e.busy {
		return nil, ErrBusy
	}
	e.busy = true
	defer func() { e.busy = false }()

	start := len(e.log)
	prevOrder := e.lastOrder
	e.append(domain.SenderUser, text, nil)

	var action string
	if e.session != nil {
		action = e.handleCheckoutStep(ctx, text)
	} else {
		action = e.handleFreeform(ctx, text)
	}

	turn := &Turn{
		Messages: make([]domain.ChatMessage, len(e.log)-start),
		Action:   action,
	}
	copy(turn.Messages, e.log[start:])
	if e.lastOrder != prevOrder {
		turn.PlacedOrder = e.lastOrder
	}
	return turn, nil
}

func (e *Engine) handleFreeform(ctx context.Context, text string) string {
	res, err := e.resolver.Resolve(ctx, text)
	if err != nil {
		e.logger.Error("intent resolution failed", "error", err)
		e.appendBot(serviceErrorText, nil)
		return "resolver_error"
	}

	switch res.Action {
	case domain.ActionAddToCart:
		for _, it := range res.Items {
			e.cart.Add(domain.CartLine{ID: it.ID, Name: it.Name, UnitPrice: it.Price}, it.Quantity)
		}
		e.appendBot(res.Message, res.Suggestions)

	case domain.ActionRemoveFromCart:
		for _, it := range res.Items {
			e.cart.Remove(it.ID)
		}
		e.appendBot(res.Message, res.Suggestions)

	case domain.ActionClearCart:
		e.cart.Clear()
		e.appendBot(res.Message, nil)

	case domain.ActionViewCart:
		e.appendBot(viewCartText(res.Message, e.cart.Snapshot(), e.cart.Total()), nil)

	case domain.ActionPlaceOrder:
		if e.cart.Count() == 0 {
			e.appendBot(emptyCartText, nil)
			break
		}
		if res.Message != "" {
			e.appendBot(res.Message, nil)
		}
		e.startCheckout()

	default:
		e.appendBot(res.Message, res.Suggestions)
	}

	return string(res.Action)
}

// startCheckout freezes a snapshot of the cart and enters the name step.
// The snapshot is what the user will confirm; the live cart is compared
// against it again at submission time.
func (e *Engine) startCheckout() {
	lines := e.cart.Snapshot()
	e.session = &checkoutSession{step: stepName, snapshot: lines}
	e.appendBot(checkoutIntroText(lines, e.cart.Total()), nil)
}

// Log returns a copy of the append-only message log.
func (e *Engine) Log() []domain.ChatMessage {
	log := make([]domain.ChatMessage, len(e.log))
	copy(log, e.log)
	return log
}

func (e *Engine) Busy() bool {
	return e.busy
}

func (e *Engine) SetOpen(open bool) {
	e.open = open
}

func (e *Engine) IsOpen() bool {
	return e.open
}

// LastOrder is the most recent successfully placed order, or nil.
func (e *Engine) LastOrder() *domain.PlacedOrder {
	return e.lastOrder
}

// Navigate delivers at most one signal per successfully placed order,
// after the configured delay.
func (e *Engine) Navigate() <-chan struct{} {
	return e.navigate
}

// Stop cancels a pending navigate signal. Safe to call at any time.
func (e *Engine) Stop() {
	if e.navTimer != nil {
		e.navTimer.Stop()
	}
}

func (e *Engine) scheduleNavigate() {
	if e.navTimer != nil {
		e.navTimer.Stop()
	}
	e.navTimer = time.AfterFunc(e.navigateDelay, func() {
		select {
		case e.navigate <- struct{}{}:
		default:
		}
	})
}

// Timestamps are captured at append time, so log order reflects
// completion order of the calls that produced each message.
func (e *Engine) append(sender domain.Sender, text string, suggestions []domain.Suggestion) {
	e.log = append(e.log, domain.ChatMessage{
		Sender:      sender,
		Text:        text,
		Timestamp:   time.Now().UTC(),
		Suggestions: suggestions,
	})
}

func (e *Engine) appendBot(text string, suggestions []domain.Suggestion) {
	e.append(domain.SenderBot, text, suggestions)
}
