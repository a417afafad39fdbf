package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"checkout-service/internal/catalog"
	"checkout-service/internal/models"
	"checkout-service/internal/pricing"
	"checkout-service/internal/session"
	"checkout-service/internal/shipping"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrReferenceDataUnavailable = errors.New("reference data not loaded")
	ErrSessionNotFound          = session.ErrNotFound
)

// SessionStore persists checkout sessions. Lock serializes updates to one
// session and returns the release function.
type SessionStore interface {
	Load(ctx context.Context, id string) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Lock(ctx context.Context, id string) (func(), error)
}

// EventPublisher publishes checkout events
type EventPublisher interface {
	PublishCheckoutCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) error
	PublishConfirmationResend(ctx context.Context, event *models.ConfirmationResendEvent) error
}

// CheckoutService drives a session through the checkout pipeline
type CheckoutService struct {
	ref      atomic.Pointer[ReferenceData]
	sessions SessionStore
	events   EventPublisher
	payments *PaymentService
	logger   *zap.Logger
	now      func() time.Time
}

// NewCheckoutService creates a new checkout service. Reference data may be
// nil and supplied later with SetReferenceData.
func NewCheckoutService(
	ref *ReferenceData,
	sessions SessionStore,
	events EventPublisher,
	payments *PaymentService,
) *CheckoutService {
	s := &CheckoutService{
		sessions: sessions,
		events:   events,
		payments: payments,
		logger:   util.ComponentLogger("checkout"),
		now:      time.Now,
	}
	if ref != nil {
		s.ref.Store(ref)
	}
	return s
}

// SetReferenceData swaps in a freshly loaded catalog and rate table
func (s *CheckoutService) SetReferenceData(ref *ReferenceData) {
	s.ref.Store(ref)
}

// Ready reports whether reference data has been loaded
func (s *CheckoutService) Ready() bool {
	return s.ref.Load() != nil
}

func (s *CheckoutService) reference() (*ReferenceData, error) {
	ref := s.ref.Load()
	if ref == nil {
		return nil, ErrReferenceDataUnavailable
	}
	return ref, nil
}

// CatalogGroups returns the active products grouped for display
func (s *CheckoutService) CatalogGroups() ([]catalog.Group, error) {
	ref, err := s.reference()
	if err != nil {
		return nil, err
	}
	return ref.Catalog.Groups(), nil
}

// StartSession opens a new empty checkout session
func (s *CheckoutService) StartSession(ctx context.Context) (*session.Session, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.StartSession", "")
	defer span.End()

	sess := session.New(uuid.New().String(), s.now())
	if err := s.sessions.Save(ctx, sess); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	util.SessionsStartedTotal.Inc()
	s.logger.Info("Checkout session started", zap.String("session_id", sess.ID))
	return sess, nil
}

// GetSession returns the current state of a session
func (s *CheckoutService) GetSession(ctx context.Context, id string) (*session.Session, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.GetSession", id)
	defer span.End()

	return s.sessions.Load(ctx, id)
}

// update runs fn against a locked copy of the session and saves it only when
// fn succeeds.
func (s *CheckoutService) update(ctx context.Context, id string, fn func(*session.Session) error) (*session.Session, error) {
	release, err := s.sessions.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(sess); err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

// CartRequest is the buyer's raw product selection
type CartRequest struct {
	Selections []models.Selection `json:"selections" binding:"dive"`
	Comment    string             `json:"comment_text"`
}

// CartResponse is the normalized cart and the methods it can ship with
type CartResponse struct {
	Lines   []models.OrderLine `json:"orders"`
	Totals  models.CartTotals  `json:"totals"`
	Methods []string           `json:"shipping_methods"`
}

// UpdateCart aggregates the selections, computes the eligible methods and
// records the cart. A rejected composition leaves the session untouched.
func (s *CheckoutService) UpdateCart(ctx context.Context, id string, req *CartRequest) (*CartResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.UpdateCart", id)
	defer span.End()

	ref, err := s.reference()
	if err != nil {
		return nil, err
	}

	result, err := pricing.NewAggregator(ref.Catalog).Aggregate(req.Selections)
	if err != nil {
		var compErr *pricing.CompositionError
		if errors.As(err, &compErr) {
			util.CompositionErrorsTotal.WithLabelValues(compErr.Family).Inc()
		}
		util.CartAggregationsTotal.WithLabelValues("rejected").Inc()
		util.RecordError(span, err)
		return nil, err
	}

	methods := shipping.EligibleMethods(result.Totals.TotalSize, result.Lines)
	if len(methods) == 0 && !result.IsEmpty() {
		util.NoEligibleMethodTotal.Inc()
	}

	if _, err := s.update(ctx, id, func(sess *session.Session) error {
		return sess.SetCart(result.Lines, result.Totals, req.Comment, methods, s.now())
	}); err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	util.CartAggregationsTotal.WithLabelValues("accepted").Inc()
	s.logger.Debug("Cart updated",
		zap.String("session_id", id),
		zap.Int("lines", len(result.Lines)),
		zap.Int64("total_price", result.Totals.TotalPrice),
		zap.Int64("total_size", result.Totals.TotalSize),
		zap.Strings("methods", methods))

	return &CartResponse{
		Lines:   result.Lines,
		Totals:  result.Totals,
		Methods: methods,
	}, nil
}

// ShippingRequest names the chosen shipping method
type ShippingRequest struct {
	Method string `json:"shipping_method" binding:"required"`
}

// ShippingResponse tells the caller which address form to present
type ShippingResponse struct {
	Method string        `json:"shipping_method"`
	Flow   shipping.Flow `json:"flow"`
}

// ChooseShipping accepts one of the methods offered for the current cart
func (s *CheckoutService) ChooseShipping(ctx context.Context, id string, req *ShippingRequest) (*ShippingResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.ChooseShipping", id)
	defer span.End()

	if _, err := s.update(ctx, id, func(sess *session.Session) error {
		return sess.ChooseShipping(req.Method, s.now())
	}); err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	return &ShippingResponse{Method: req.Method, Flow: shipping.FlowFor(req.Method)}, nil
}

// FeeResponse is the confirmed fee and the resulting grand total
type FeeResponse struct {
	OrderID     string            `json:"order_id"`
	Method      string            `json:"shipping_method"`
	Region      string            `json:"region,omitempty"`
	Totals      models.CartTotals `json:"totals"`
	ShippingFee int64             `json:"shipping_fee"`
	GrandTotal  int64             `json:"grand_total"`
}

// SubmitAddress validates the address form for the chosen method's flow,
// resolves the shipping fee and binds it to the session. Nothing is saved
// unless the fee resolves.
func (s *CheckoutService) SubmitAddress(ctx context.Context, id string, form *shipping.AddressForm) (*FeeResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.SubmitAddress", id)
	defer span.End()

	ref, err := s.reference()
	if err != nil {
		return nil, err
	}

	var flow shipping.Flow
	sess, err := s.update(ctx, id, func(sess *session.Session) error {
		if sess.ShippingMethod == "" {
			return sess.CaptureAddress(models.ContactInfo{}, models.Destination{}, s.now())
		}

		method := sess.ShippingMethod
		flow = shipping.FlowFor(method)

		contact := flow.Contact(*form, method)
		if err := flow.ValidateContact(contact); err != nil {
			return err
		}

		dest := flow.Strategy().Destination(contact)
		if err := sess.CaptureAddress(contact, dest, s.now()); err != nil {
			return err
		}

		fee, err := shipping.ResolveFee(method, dest, ref.Rates, flow.LookupOrder())
		if err != nil {
			util.FeeResolutionsTotal.WithLabelValues(string(flow), "failed").Inc()
			return err
		}
		util.FeeResolutionsTotal.WithLabelValues(string(flow), "resolved").Inc()

		return sess.ConfirmFee(session.FeeQuote{Method: method, Region: dest.Region, Fee: fee}, s.now())
	})
	if err != nil {
		util.RecordError(span, err)
		s.logger.Debug("Address rejected", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Shipping fee confirmed",
		zap.String("session_id", id),
		zap.String("order_id", sess.OrderID),
		zap.String("flow", string(flow)),
		zap.String("region", sess.Destination.Region),
		zap.Int64("fee", sess.Fee.Fee))

	return feeResponse(sess), nil
}

func feeResponse(sess *session.Session) *FeeResponse {
	return &FeeResponse{
		OrderID:     sess.OrderID,
		Method:      sess.Fee.Method,
		Region:      sess.Fee.Region,
		Totals:      sess.Totals,
		ShippingFee: sess.Fee.Fee,
		GrandTotal:  sess.GrandTotal,
	}
}

// Review marks the confirmation screen as seen and returns the session
func (s *CheckoutService) Review(ctx context.Context, id string) (*session.Session, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Review", id)
	defer span.End()

	sess, err := s.update(ctx, id, func(sess *session.Session) error {
		return sess.Review(s.now())
	})
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	return sess, nil
}

// Pay authorizes the grand total and records the transaction
func (s *CheckoutService) Pay(ctx context.Context, id string) (*session.Session, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Pay", id)
	defer span.End()

	sess, err := s.update(ctx, id, func(sess *session.Session) error {
		switch {
		case sess.Stage == session.StagePaymentAuthorized:
			// already paid; repeating the call must not charge twice
			return nil
		case sess.Stage != session.StageConfirmationReviewed:
			return sess.AuthorizePayment("", s.now())
		}

		txID, err := s.payments.Authorize(ctx, sess.OrderID, sess.GrandTotal)
		if err != nil {
			return fmt.Errorf("payment failed: %w", err)
		}
		return sess.AuthorizePayment(txID, s.now())
	})
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	return sess, nil
}

// Complete finishes the checkout and publishes the completion event. The
// event is built before the session purges its cart fields.
func (s *CheckoutService) Complete(ctx context.Context, id string) (*session.Session, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Complete", id)
	defer span.End()

	var event *models.CheckoutCompletedEvent
	sess, err := s.update(ctx, id, func(sess *session.Session) error {
		event = completedEvent(sess, s.now())
		return sess.Complete(s.now())
	})
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	util.CheckoutsCompletedTotal.Inc()

	if err := s.events.PublishCheckoutCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish CheckoutCompleted event",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}

	s.logger.Info("Checkout completed",
		zap.String("session_id", id),
		zap.String("order_id", event.OrderID),
		zap.Int64("grand_total", event.GrandTotal))

	return sess, nil
}

func completedEvent(sess *session.Session, now time.Time) *models.CheckoutCompletedEvent {
	event := &models.CheckoutCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCheckoutCompleted,
			Timestamp: now,
		},
		OrderID:        sess.OrderID,
		SessionID:      sess.ID,
		Lines:          append([]models.OrderLine(nil), sess.Lines...),
		TotalPrice:     sess.Totals.TotalPrice,
		TotalSize:      sess.Totals.TotalSize,
		ShippingMethod: sess.ShippingMethod,
		GrandTotal:     sess.GrandTotal,
		Comment:        sess.Comment,
	}
	if sess.Fee != nil {
		event.ShippingFee = sess.Fee.Fee
	}
	if sess.Contact != nil {
		event.Email = sess.Contact.Email
	}
	return event
}

// ResendConfirmation requests another confirmation mail for a completed order
func (s *CheckoutService) ResendConfirmation(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "CheckoutService.ResendConfirmation", id)
	defer span.End()

	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := sess.CanResend(); err != nil {
		return err
	}

	event := &models.ConfirmationResendEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeConfirmationResendReq,
			Timestamp: s.now(),
		},
		OrderID:   sess.OrderID,
		SessionID: sess.ID,
		Email:     sess.Contact.Email,
	}

	if err := s.events.PublishConfirmationResend(ctx, event); err != nil {
		util.RecordError(span, err)
		return fmt.Errorf("failed to request confirmation resend: %w", err)
	}

	util.ConfirmationResendsTotal.Inc()
	s.logger.Info("Confirmation resend requested",
		zap.String("session_id", id),
		zap.String("order_id", sess.OrderID))
	return nil
}
