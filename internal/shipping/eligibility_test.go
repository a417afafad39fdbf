package shipping

import (
	"testing"

	"checkout-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func lines(codes ...string) []models.OrderLine {
	out := make([]models.OrderLine, 0, len(codes))
	for _, c := range codes {
		out = append(out, models.OrderLine{ProductCode: c, Quantity: 1})
	}
	return out
}

func TestEligibleMethods(t *testing.T) {
	items := lines("901_DR_0060_01", "HANDCARE")
	short := lines("301_SB_0240_01", "901_DR_0060_01")
	standing := lines("101_LB_0360_01", "101_LO_0000_01")
	sitting := lines("201_LB_0400_01")
	mixedTall := lines("101_LB_0360_01", "201_LB_0400_01")
	tallAndShort := lines("101_LB_0360_01", "301_SB_0240_01")

	tests := []struct {
		name  string
		size  int64
		lines []models.OrderLine
		want  []string
	}{
		{"items only at compact limit", 360, items, []string{MethodCompactLetter, MethodCourierCompactAnonymous}},
		{"items only above compact limit", 361, items, []string{MethodLetterPlus, MethodCourierCompactAnonymous}},
		{"empty cart", 0, nil, []string{MethodCompactLetter, MethodCourierCompactAnonymous}},
		{"short set small", 720, short, []string{MethodLetterPlus, MethodCourierCompactAnonymous}},
		{"short set medium", 721, short, []string{MethodLetterPlus, MethodCourier60Anonymous}},
		{"short set at upper limit", 1160, short, []string{MethodLetterPlus, MethodCourier60Anonymous}},
		{"short set above upper limit", 1161, short, []string{}},
		{"standing only at letter limit", 1160, standing, []string{MethodLetterPlus, MethodPostalPickup60, MethodPostal60, MethodCourier60Anonymous}},
		{"standing only above letter limit", 1161, standing, []string{MethodPostalPickup60, MethodPostal60, MethodCourier60Anonymous}},
		{"sitting small", 400, sitting, []string{MethodPostalPickup60, MethodPostal60, MethodCourier60Anonymous}},
		{"mixed tall small", 760, mixedTall, []string{MethodPostalPickup60, MethodPostal60, MethodCourier60Anonymous}},
		{"tall at 60 limit", 2799, sitting, []string{MethodPostalPickup60, MethodPostal60, MethodCourier60Anonymous}},
		{"tall above 60 limit", 2800, standing, []string{MethodPostalPickup80, MethodPostal80, MethodCourier80Anonymous}},
		{"tall with short", 600, tallAndShort, []string{MethodLetterPlus, MethodPostalPickup60, MethodPostal60, MethodCourier60Anonymous}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EligibleMethods(tt.size, tt.lines))
		})
	}
}

func TestEligibleMethodsIdempotent(t *testing.T) {
	cart := lines("101_LB_0360_01")
	before := append([]models.OrderLine(nil), cart...)

	first := EligibleMethods(900, cart)
	first[0] = "mutated"
	second := EligibleMethods(900, cart)

	assert.Equal(t, MethodLetterPlus, second[0])
	assert.Equal(t, before, cart)
}

func TestOffers(t *testing.T) {
	methods := []string{MethodLetterPlus, MethodPostal60}
	assert.True(t, Offers(methods, MethodPostal60))
	assert.False(t, Offers(methods, MethodPostal80))
	assert.False(t, Offers(nil, MethodPostal60))
}
