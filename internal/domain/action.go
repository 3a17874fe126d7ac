package domain

// ActionKind is the closed set of cart actions the intent resolver can
// return. Anything the resolver sends outside this set decodes to
// ActionNone rather than failing.
type ActionKind string

const (
	ActionAddToCart      ActionKind = "add_to_cart"
	ActionRemoveFromCart ActionKind = "remove_from_cart"
	ActionClearCart      ActionKind = "clear_cart"
	ActionViewCart       ActionKind = "view_cart"
	ActionPlaceOrder     ActionKind = "place_order"
	ActionNone           ActionKind = "none"
)

func ParseActionKind(s string) ActionKind {
	switch ActionKind(s) {
	case ActionAddToCart, ActionRemoveFromCart, ActionClearCart,
		ActionViewCart, ActionPlaceOrder:
		return ActionKind(s)
	}
	return ActionNone
}

// ResolvedItem is a menu item the resolver matched in the user's message.
type ResolvedItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Resolution is the resolver's structured view of one free-text message.
// Items and Suggestions may be empty.
type Resolution struct {
	Action      ActionKind     `json:"action"`
	Message     string         `json:"message"`
	Items       []ResolvedItem `json:"items,omitempty"`
	Suggestions []Suggestion   `json:"suggestions,omitempty"`
}
