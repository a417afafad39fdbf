package models

import "time"

// Event types
const (
	EventTypeCheckoutCompleted     = "CHECKOUT_COMPLETED"
	EventTypeConfirmationResendReq = "CONFIRMATION_RESEND_REQUESTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutCompletedEvent published when a session reaches the completed stage
type CheckoutCompletedEvent struct {
	BaseEvent
	OrderID        string      `json:"order_id"`
	SessionID      string      `json:"session_id"`
	Lines          []OrderLine `json:"lines"`
	TotalPrice     int64       `json:"total_price"`
	TotalSize      int64       `json:"total_size"`
	ShippingMethod string      `json:"shipping_method"`
	ShippingFee    int64       `json:"shipping_fee"`
	GrandTotal     int64       `json:"grand_total"`
	Email          string      `json:"email"`
	Comment        string      `json:"comment,omitempty"`
}

// ConfirmationResendEvent published when the buyer asks for the confirmation
// mail again after completion
type ConfirmationResendEvent struct {
	BaseEvent
	OrderID   string `json:"order_id"`
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
}
