package shipping

import (
	"checkout-service/internal/catalog"
	"checkout-service/internal/models"
)

// Shipping method labels. They double as the method column of the rate table.
const (
	MethodCompactLetter           = "レターパックライト"
	MethodLetterPlus              = "レターパックプラス"
	MethodCourierCompactAnonymous = "クロネコ宅急便コンパクトの匿名配送"
	MethodCourier60Anonymous      = "クロネコ宅急便の匿名配送(60サイズ)"
	MethodCourier80Anonymous      = "クロネコ宅急便の匿名配送(80サイズ)"
	MethodPostalPickup60          = "ゆうパックで郵便局受け取り(60サイズ)"
	MethodPostal60                = "ゆうパック(60サイズ)"
	MethodPostalPickup80          = "ゆうパックで郵便局受け取り(80サイズ)"
	MethodPostal80                = "ゆうパック(80サイズ)"
)

// Size thresholds, inclusive upper bounds
const (
	compactLetterMaxSize = 360
	shortSetCompactMax   = 720
	letterPlusSetMax     = 1160
	tallSet60Max         = 2799
)

type composition struct {
	anyBaseSet       bool
	shortBaseSet     bool
	tallBaseSet      bool
	standingOnlyTall bool
}

func analyze(lines []models.OrderLine) composition {
	c := composition{standingOnlyTall: true}
	for _, line := range lines {
		code := line.ProductCode
		if catalog.IsBaseSet(code) {
			c.anyBaseSet = true
		}
		if catalog.IsShortBaseSet(code) {
			c.shortBaseSet = true
		}
		if catalog.IsTallBaseSet(code) {
			c.tallBaseSet = true
			if !catalog.IsStandingTallBaseSet(code) {
				c.standingOnlyTall = false
			}
		}
	}
	c.standingOnlyTall = c.standingOnlyTall && c.tallBaseSet
	return c
}

// EligibleMethods returns the shipping methods offered for a cart, suggested
// default first. The result is a new slice on every call and is empty when
// no method applies.
func EligibleMethods(totalSize int64, lines []models.OrderLine) []string {
	c := analyze(lines)

	switch {
	case !c.anyBaseSet:
		if totalSize <= compactLetterMaxSize {
			return []string{MethodCompactLetter, MethodCourierCompactAnonymous}
		}
		return []string{MethodLetterPlus, MethodCourierCompactAnonymous}

	case c.shortBaseSet && !c.tallBaseSet:
		switch {
		case totalSize <= shortSetCompactMax:
			return []string{MethodLetterPlus, MethodCourierCompactAnonymous}
		case totalSize <= letterPlusSetMax:
			return []string{MethodLetterPlus, MethodCourier60Anonymous}
		}
		// Nothing is defined above this size yet.
		return []string{}

	case c.tallBaseSet:
		switch {
		case c.standingOnlyTall && totalSize <= letterPlusSetMax:
			return []string{MethodLetterPlus, MethodPostalPickup60, MethodPostal60, MethodCourier60Anonymous}
		case totalSize <= tallSet60Max:
			return []string{MethodPostalPickup60, MethodPostal60, MethodCourier60Anonymous}
		}
		return []string{MethodPostalPickup80, MethodPostal80, MethodCourier80Anonymous}
	}

	return []string{}
}

// Offers reports whether method is among the eligible methods
func Offers(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}
