package domain

import "time"

type OrderStatus string

const (
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

type OrderType string

const (
	OrderTypeManual  OrderType = "manual"
	OrderTypeChatbot OrderType = "ai_chatbot"
)

type OrderItem struct {
	MenuItemID int64   `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	ItemPrice  float64 `json:"item_price"`
}

type Order struct {
	ID              string      `json:"id"`
	TotalAmount     float64     `json:"total_amount"`
	Status          OrderStatus `json:"status"`
	OrderType       OrderType   `json:"order_type"`
	DeliveryAddress string      `json:"delivery_address"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
}

// SubmissionItem references a menu item by id; prices are never trusted
// from the client and are resolved server side.
type SubmissionItem struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type SubmissionRequest struct {
	Items           []SubmissionItem `json:"items"`
	OrderType       OrderType        `json:"order_type"`
	DeliveryAddress string           `json:"delivery_address"`
}

type SubmissionResult struct {
	OrderID     string      `json:"order_id"`
	TotalAmount float64     `json:"total_amount"`
	CreatedAt   time.Time   `json:"created_at"`
	Status      OrderStatus `json:"status"`
}

// PlacedOrder is the chat session's record of its last successful order,
// kept for the confirmation page.
type PlacedOrder struct {
	OrderID       string      `json:"order_id"`
	Items         []CartLine  `json:"items"`
	TotalAmount   float64     `json:"total_amount"`
	CustomerName  string      `json:"customer_name"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	PaymentMethod string      `json:"payment_method"`
	CreatedAt     time.Time   `json:"created_at"`
	Status        OrderStatus `json:"status"`
}
