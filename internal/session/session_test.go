package session

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"checkout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0      = time.Date(2026, 10, 16, 9, 30, 5, 0, time.UTC)
	method  = "ゆうパック(60サイズ)"
	offered = []string{"ゆうパックで郵便局受け取り(60サイズ)", method}
	contact = models.ContactInfo{Name: "Hanako", Address1: "東京都千代田区", Email: "hanako@example.com"}
	tokyo   = models.Destination{Region: "東京都"}
)

func cartLines() []models.OrderLine {
	return []models.OrderLine{
		{ProductCode: "101_LB_0360_01", FullName: "L standing set", Quantity: 1},
		{ProductCode: "901_DR_0060_01", FullName: "Dress", Quantity: 2},
	}
}

func feeConfirmed(t *testing.T) *Session {
	t.Helper()
	s := New("sess-1", t0)
	require.NoError(t, s.SetCart(cartLines(), models.CartTotals{TotalPrice: 17800, TotalSize: 480}, "gift wrap please", offered, t0))
	require.NoError(t, s.ChooseShipping(method, t0))
	require.NoError(t, s.CaptureAddress(contact, tokyo, t0))
	require.NoError(t, s.ConfirmFee(FeeQuote{Method: method, Region: "東京都", Fee: 870}, t0))
	return s
}

func TestHappyPath(t *testing.T) {
	s := feeConfirmed(t)
	assert.Equal(t, StageFeeConfirmed, s.Stage)
	assert.Equal(t, int64(17800+870), s.GrandTotal)
	assert.Equal(t, method, s.Contact.ShippingMethod)
	assert.NotEmpty(t, s.OrderID)

	require.NoError(t, s.Review(t0))
	require.NoError(t, s.AuthorizePayment("TXN-1", t0))
	require.NoError(t, s.Complete(t0))

	assert.Equal(t, StageCompleted, s.Stage)
	assert.NotEmpty(t, s.OrderID)
	assert.Equal(t, "hanako@example.com", s.Contact.Email)
	assert.Nil(t, s.Lines)
	assert.Equal(t, models.CartTotals{}, s.Totals)
	assert.Empty(t, s.Comment)
	assert.Empty(t, s.ShippingMethod)
	assert.Nil(t, s.Fee)
	assert.Zero(t, s.GrandTotal)
	assert.NoError(t, s.CanResend())
}

func TestCompletedIsTerminal(t *testing.T) {
	s := feeConfirmed(t)
	require.NoError(t, s.Review(t0))
	require.NoError(t, s.AuthorizePayment("TXN-1", t0))
	require.NoError(t, s.Complete(t0))

	assert.ErrorIs(t, s.SetCart(cartLines(), models.CartTotals{TotalPrice: 1}, "", offered, t0), ErrCompleted)
	assert.ErrorIs(t, s.Complete(t0), ErrCompleted)
}

func TestCartReentryResetsDownstream(t *testing.T) {
	s := feeConfirmed(t)
	id := s.OrderID

	require.NoError(t, s.SetCart(cartLines()[:1], models.CartTotals{TotalPrice: 12800, TotalSize: 360}, "", offered, t0))
	assert.Equal(t, StageCartBuilding, s.Stage)
	assert.Empty(t, s.ShippingMethod)
	assert.Nil(t, s.Fee)
	assert.Zero(t, s.GrandTotal)
	assert.Equal(t, id, s.OrderID)

	err := s.Review(t0)
	assert.ErrorIs(t, err, ErrSessionIncomplete)
}

func TestChooseShippingValidation(t *testing.T) {
	s := New("sess", t0)
	assert.ErrorIs(t, s.ChooseShipping(method, t0), ErrEmptyCart)

	require.NoError(t, s.SetCart(cartLines(), models.CartTotals{TotalPrice: 100}, "", offered, t0))
	assert.ErrorIs(t, s.ChooseShipping("ゆうパック(80サイズ)", t0), ErrMethodNotOffered)
	assert.ErrorIs(t, s.ChooseShipping("", t0), ErrMethodNotOffered)
	assert.Equal(t, StageCartBuilding, s.Stage)
}

func TestStageOrderEnforced(t *testing.T) {
	s := New("sess", t0)
	assert.ErrorIs(t, s.CaptureAddress(contact, tokyo, t0), ErrSessionIncomplete)
	assert.ErrorIs(t, s.ConfirmFee(FeeQuote{}, t0), ErrSessionIncomplete)
	assert.ErrorIs(t, s.Review(t0), ErrSessionIncomplete)
	assert.ErrorIs(t, s.AuthorizePayment("x", t0), ErrSessionIncomplete)
	assert.ErrorIs(t, s.Complete(t0), ErrSessionIncomplete)
	assert.ErrorIs(t, s.CanResend(), ErrSessionIncomplete)
}

func TestStaleFeeRejected(t *testing.T) {
	s := New("sess", t0)
	require.NoError(t, s.SetCart(cartLines(), models.CartTotals{TotalPrice: 100}, "", offered, t0))
	require.NoError(t, s.ChooseShipping(method, t0))
	require.NoError(t, s.CaptureAddress(contact, tokyo, t0))

	err := s.ConfirmFee(FeeQuote{Method: method, Region: "大阪府", Fee: 900}, t0)
	assert.True(t, errors.Is(err, ErrStaleFee))
	assert.Nil(t, s.Fee)
	assert.Empty(t, s.OrderID)
	assert.Equal(t, StageAddressCaptured, s.Stage)
}

func TestAddressReentryDropsFee(t *testing.T) {
	s := feeConfirmed(t)

	require.NoError(t, s.CaptureAddress(contact, models.Destination{Region: "大阪府"}, t0))
	assert.Nil(t, s.Fee)
	assert.ErrorIs(t, s.Review(t0), ErrSessionIncomplete)
}

func TestOrderIDStable(t *testing.T) {
	s := feeConfirmed(t)
	first := s.OrderID

	assert.Equal(t, first, s.EnsureOrderID(t0.Add(time.Hour)))

	require.NoError(t, s.CaptureAddress(contact, tokyo, t0))
	require.NoError(t, s.ConfirmFee(FeeQuote{Method: method, Region: "東京都", Fee: 870}, t0.Add(time.Minute)))
	assert.Equal(t, first, s.OrderID)
}

func TestNewOrderIDFormat(t *testing.T) {
	id := NewOrderID(t0)
	assert.Regexp(t, regexp.MustCompile(`^20261016-093005-[0-9A-Z]{5}$`), id)
}

func TestRoundTrip(t *testing.T) {
	s := feeConfirmed(t)
	s.Totals = models.CartTotals{TotalPrice: 9007199254740993, TotalSize: 123456789}
	s.GrandTotal = 9007199254741863

	b, err := Marshal(s)
	require.NoError(t, err)

	back, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, s, back)
	assert.Equal(t, int64(9007199254740993), back.Totals.TotalPrice)
}

func TestUnmarshalRejectsUnknownStage(t *testing.T) {
	_, err := Unmarshal([]byte(`{"session_id":"x","stage":"SHIPPED"}`))
	assert.Error(t, err)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "FEE_CONFIRMED", StageFeeConfirmed.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
	assert.True(t, StageCompleted.IsTerminal())
	assert.False(t, StagePaymentAuthorized.IsTerminal())
}

func paid(t *testing.T) *Session {
	t.Helper()
	s := feeConfirmed(t)
	require.NoError(t, s.Review(t0))
	require.NoError(t, s.AuthorizePayment("TXN-1", t0))
	return s
}

func TestReviewAfterPaymentRejected(t *testing.T) {
	s := paid(t)

	assert.ErrorIs(t, s.Review(t0), ErrStagePassed)
	assert.ErrorIs(t, s.AuthorizePayment("TXN-2", t0), ErrStagePassed)
	assert.ErrorIs(t, s.ConfirmFee(*s.Fee, t0), ErrStagePassed)

	assert.Equal(t, StagePaymentAuthorized, s.Stage)
	assert.Equal(t, "TXN-1", s.PaymentTxID)
}

func TestReviewRepeatableBeforePayment(t *testing.T) {
	s := feeConfirmed(t)
	require.NoError(t, s.Review(t0))
	require.NoError(t, s.Review(t0))
	assert.Equal(t, StageConfirmationReviewed, s.Stage)
}

func TestReentryAfterPaymentDropsPayment(t *testing.T) {
	s := paid(t)
	require.NoError(t, s.CaptureAddress(contact, tokyo, t0))
	assert.Empty(t, s.PaymentTxID)
	assert.Equal(t, StageAddressCaptured, s.Stage)

	s = paid(t)
	require.NoError(t, s.ChooseShipping(method, t0))
	assert.Empty(t, s.PaymentTxID)

	s = paid(t)
	require.NoError(t, s.SetCart(cartLines(), models.CartTotals{TotalPrice: 17800, TotalSize: 480}, "", offered, t0))
	assert.Empty(t, s.PaymentTxID)
	assert.Nil(t, s.Fee)
}
