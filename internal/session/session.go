package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"checkout-service/internal/models"
)

var (
	ErrSessionIncomplete = errors.New("checkout session incomplete")
	ErrStaleFee          = errors.New("shipping fee does not match current method and destination")
	ErrMethodNotOffered  = errors.New("shipping method not offered for this cart")
	ErrEmptyCart         = errors.New("no products selected")
	ErrCompleted         = errors.New("checkout session already completed")
	ErrStagePassed       = errors.New("checkout session is already past this stage")
)

// FeeQuote is a fee together with the method and region it was resolved for
type FeeQuote struct {
	Method string `json:"method"`
	Region string `json:"region,omitempty"`
	Fee    int64  `json:"fee"`
}

// Session is the state one buyer carries through the checkout pipeline.
// Every transition validates first and only then writes, so a failed call
// leaves the session as it was.
type Session struct {
	ID             string              `json:"session_id"`
	Stage          Stage               `json:"stage"`
	Lines          []models.OrderLine  `json:"orders,omitempty"`
	Totals         models.CartTotals   `json:"totals"`
	Comment        string              `json:"comment_text,omitempty"`
	OfferedMethods []string            `json:"offered_methods,omitempty"`
	ShippingMethod string              `json:"shipping_method,omitempty"`
	Destination    models.Destination  `json:"destination"`
	Contact        *models.ContactInfo `json:"customer_info,omitempty"`
	Fee            *FeeQuote           `json:"shipping_fee,omitempty"`
	GrandTotal     int64               `json:"grand_total"`
	OrderID        string              `json:"order_id,omitempty"`
	PaymentTxID    string              `json:"payment_tx_id,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// New starts an empty session
func New(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Stage:     StageCartBuilding,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func incomplete(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSessionIncomplete, fmt.Sprintf(format, args...))
}

func (s *Session) requireOpen() error {
	if s.Stage.IsTerminal() {
		return ErrCompleted
	}
	return nil
}

func (s *Session) requireStage(min Stage) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	if s.Stage < min {
		return incomplete("stage %s reached, %s required", s.Stage, min)
	}
	return nil
}

// requireNotPast rejects actions that would move the session back from a
// later stage without new buyer input.
func (s *Session) requireNotPast(max Stage) error {
	if s.Stage > max {
		return fmt.Errorf("%w: stage %s reached", ErrStagePassed, s.Stage)
	}
	return nil
}

func (s *Session) resetFee() {
	s.Fee = nil
	s.GrandTotal = 0
}

// resetDownstream drops the fee and any payment bound to it
func (s *Session) resetDownstream() {
	s.resetFee()
	s.PaymentTxID = ""
}

// SetCart records a freshly aggregated cart. It sends the session back to
// cart building, dropping the accepted method, the destination and the fee.
func (s *Session) SetCart(lines []models.OrderLine, totals models.CartTotals, comment string, offered []string, now time.Time) error {
	if err := s.requireOpen(); err != nil {
		return err
	}

	s.Lines = append([]models.OrderLine(nil), lines...)
	s.Totals = totals
	s.Comment = comment
	s.OfferedMethods = append([]string(nil), offered...)
	s.ShippingMethod = ""
	s.Destination = models.Destination{}
	s.resetDownstream()
	s.Stage = StageCartBuilding
	s.UpdatedAt = now
	return nil
}

// ChooseShipping accepts one of the offered methods
func (s *Session) ChooseShipping(method string, now time.Time) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	if len(s.Lines) == 0 || s.Totals.TotalPrice == 0 {
		return ErrEmptyCart
	}
	if method == "" || !contains(s.OfferedMethods, method) {
		return fmt.Errorf("%w: %q", ErrMethodNotOffered, method)
	}

	s.ShippingMethod = method
	s.Destination = models.Destination{}
	s.resetDownstream()
	s.Stage = StageShippingChosen
	s.UpdatedAt = now
	return nil
}

// CaptureAddress records the buyer's contact fields and resolved destination
func (s *Session) CaptureAddress(contact models.ContactInfo, dest models.Destination, now time.Time) error {
	if err := s.requireStage(StageShippingChosen); err != nil {
		return err
	}
	if s.ShippingMethod == "" {
		return incomplete("no shipping method chosen")
	}

	contact.ShippingMethod = s.ShippingMethod
	s.Contact = &contact
	s.Destination = dest
	s.resetDownstream()
	s.Stage = StageAddressCaptured
	s.UpdatedAt = now
	return nil
}

// ConfirmFee binds a resolved fee to the session. The quote must have been
// resolved for the method and destination recorded right now. The order
// identifier is generated here if the session has none yet.
func (s *Session) ConfirmFee(quote FeeQuote, now time.Time) error {
	if err := s.requireStage(StageAddressCaptured); err != nil {
		return err
	}
	if err := s.requireNotPast(StageFeeConfirmed); err != nil {
		return err
	}
	if s.ShippingMethod == "" || s.Contact == nil {
		return incomplete("shipping method and address required")
	}
	if quote.Method != s.ShippingMethod || quote.Region != s.Destination.Region {
		return ErrStaleFee
	}

	q := quote
	s.Fee = &q
	s.GrandTotal = s.Totals.TotalPrice + quote.Fee
	s.EnsureOrderID(now)
	s.Stage = StageFeeConfirmed
	s.UpdatedAt = now
	return nil
}

func (s *Session) checkFee() error {
	if s.Fee == nil {
		return incomplete("shipping fee not confirmed")
	}
	if s.Fee.Method != s.ShippingMethod || s.Fee.Region != s.Destination.Region {
		return ErrStaleFee
	}
	if len(s.Lines) == 0 || s.Contact == nil {
		return incomplete("cart and address required")
	}
	return nil
}

// Review marks the confirmation screen as seen. Reviewing again before
// payment is allowed; after payment it is rejected.
func (s *Session) Review(now time.Time) error {
	if err := s.requireStage(StageFeeConfirmed); err != nil {
		return err
	}
	if err := s.requireNotPast(StageConfirmationReviewed); err != nil {
		return err
	}
	if err := s.checkFee(); err != nil {
		return err
	}

	s.Stage = StageConfirmationReviewed
	s.UpdatedAt = now
	return nil
}

// AuthorizePayment records an approved payment for the grand total. A
// session is authorized at most once per confirmed fee.
func (s *Session) AuthorizePayment(txID string, now time.Time) error {
	if err := s.requireStage(StageConfirmationReviewed); err != nil {
		return err
	}
	if err := s.requireNotPast(StageConfirmationReviewed); err != nil {
		return err
	}
	if err := s.checkFee(); err != nil {
		return err
	}

	s.PaymentTxID = txID
	s.Stage = StagePaymentAuthorized
	s.UpdatedAt = now
	return nil
}

// Complete ends the session. The order identifier and contact fields are
// kept for resending the confirmation; cart and price fields are purged.
func (s *Session) Complete(now time.Time) error {
	if err := s.requireStage(StagePaymentAuthorized); err != nil {
		return err
	}
	if s.OrderID == "" {
		return incomplete("order identifier missing")
	}

	s.Lines = nil
	s.Totals = models.CartTotals{}
	s.Comment = ""
	s.OfferedMethods = nil
	s.ShippingMethod = ""
	s.Destination = models.Destination{}
	s.resetFee()
	s.Stage = StageCompleted
	s.UpdatedAt = now
	return nil
}

// CanResend reports whether a confirmation can be sent again
func (s *Session) CanResend() error {
	if s.Stage != StageCompleted || s.OrderID == "" {
		return incomplete("order not completed")
	}
	if s.Contact == nil || s.Contact.Email == "" {
		return incomplete("no contact email")
	}
	return nil
}

// EnsureOrderID generates the order identifier once and returns it
func (s *Session) EnsureOrderID(now time.Time) string {
	if s.OrderID == "" {
		s.OrderID = NewOrderID(now)
	}
	return s.OrderID
}

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderID formats an identifier as YYYYMMDD-HHMMSS-XXXXX. The suffix is
// random; collisions are possible but unlikely.
func NewOrderID(now time.Time) string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return now.Format("20060102-150405") + "-" + string(suffix)
}

// Marshal encodes the session as JSON
func Marshal(s *Session) ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal decodes a session encoded with Marshal
func Unmarshal(b []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
