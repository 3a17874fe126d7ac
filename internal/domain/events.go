package domain

import "time"

type OrderPlacedEvent struct {
	OrderID     string      `json:"order_id"`
	OrderType   OrderType   `json:"order_type"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Timestamp   time.Time   `json:"timestamp"`
}
