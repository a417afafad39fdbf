package pricing

import (
	"fmt"
	"strings"

	"checkout-service/internal/models"
)

// Catalog resolves product codes to active records
type Catalog interface {
	Lookup(code string) (models.ProductRecord, bool)
}

// Family pairs a skeleton part with the base sets it must accompany
type Family struct {
	Name          string
	SkeletonCode  string
	BaseSetPrefix string
}

// DefaultFamilies are the tall-style and short-style skeleton families
var DefaultFamilies = []Family{
	{Name: "tall-style", SkeletonCode: "101_LO_0000_01", BaseSetPrefix: "101_LB"},
	{Name: "short-style", SkeletonCode: "301_SO_0000_01", BaseSetPrefix: "301_SB"},
}

// CompositionError reports more skeleton units than matching base sets
type CompositionError struct {
	Family    string
	Skeletons int
	BaseSets  int
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("%s skeleton quantity %d exceeds base set quantity %d", e.Family, e.Skeletons, e.BaseSets)
}

// Result is a normalized cart and its totals
type Result struct {
	Lines  []models.OrderLine
	Totals models.CartTotals
}

// IsEmpty reports whether no line survived normalization
func (r *Result) IsEmpty() bool {
	return len(r.Lines) == 0
}

// Aggregator turns raw selections into a priced cart. It holds no state
// between calls.
type Aggregator struct {
	catalog  Catalog
	families []Family
}

// NewAggregator creates an aggregator; DefaultFamilies apply when none are given
func NewAggregator(catalog Catalog, families ...Family) *Aggregator {
	if len(families) == 0 {
		families = DefaultFamilies
	}
	return &Aggregator{
		catalog:  catalog,
		families: families,
	}
}

// Aggregate drops non-positive quantities and unknown or inactive codes,
// merges repeated codes into their first line, computes totals and validates
// skeleton/base-set composition.
func (a *Aggregator) Aggregate(selections []models.Selection) (*Result, error) {
	result := &Result{Lines: make([]models.OrderLine, 0, len(selections))}
	pos := make(map[string]int, len(selections))

	for _, sel := range selections {
		if sel.Quantity <= 0 {
			continue
		}

		product, ok := a.catalog.Lookup(sel.ProductCode)
		if !ok {
			continue
		}

		result.Totals.TotalPrice += product.UnitPrice * int64(sel.Quantity)
		result.Totals.TotalSize += product.SizeWeight * int64(sel.Quantity)

		if n, seen := pos[product.Code]; seen {
			result.Lines[n].Quantity += sel.Quantity
			continue
		}

		pos[product.Code] = len(result.Lines)
		result.Lines = append(result.Lines, models.OrderLine{
			ProductCode: product.Code,
			FullName:    product.FullName,
			Quantity:    sel.Quantity,
		})
	}

	if err := a.validateComposition(result.Lines); err != nil {
		return nil, err
	}

	return result, nil
}

func (a *Aggregator) validateComposition(lines []models.OrderLine) error {
	for _, f := range a.families {
		var skeletons, baseSets int
		for _, line := range lines {
			if line.ProductCode == f.SkeletonCode {
				skeletons += line.Quantity
			}
			if strings.HasPrefix(line.ProductCode, f.BaseSetPrefix) {
				baseSets += line.Quantity
			}
		}

		if skeletons > baseSets {
			return &CompositionError{Family: f.Name, Skeletons: skeletons, BaseSets: baseSets}
		}
	}
	return nil
}
