package shipping

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"checkout-service/internal/models"
	"checkout-service/internal/refdata"
)

var (
	ErrRegionUnresolved = errors.New("destination region could not be resolved")
	ErrRateNotFound     = errors.New("no shipping rate for method and destination")
)

// The named full-form regions come before the generic prefix pattern so the
// generic one never matches inside them.
var regionPattern = regexp.MustCompile(`(東京都|北海道|京都府|大阪府|.{2,3}県)`)

// ExtractRegion finds the region name in a free-text address line, or ""
func ExtractRegion(address string) string {
	return regionPattern.FindString(strings.TrimSpace(address))
}

// RateTable is the immutable list of shipping rates in file order
type RateTable struct {
	entries []models.ShippingRateEntry
}

// NewRateTable copies entries into a table
func NewRateTable(entries []models.ShippingRateEntry) RateTable {
	return RateTable{entries: append([]models.ShippingRateEntry(nil), entries...)}
}

// RateTableFromRows builds a table from parsed rate rows
func RateTableFromRows(rows []refdata.Row) RateTable {
	entries := make([]models.ShippingRateEntry, 0, len(rows))
	for _, row := range rows {
		fee, ok := parseFee(row.Get("shipfee"))
		entries = append(entries, models.ShippingRateEntry{
			Method: row.Get("method"),
			Region: row.Get("prefecture"),
			Fee:    fee,
			HasFee: ok,
		})
	}
	return RateTable{entries: entries}
}

func parseFee(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// Find returns the first entry for method and region
func (t RateTable) Find(method, region string) (models.ShippingRateEntry, bool) {
	for _, e := range t.entries {
		if e.Method == method && e.Region == region {
			return e, true
		}
	}
	return models.ShippingRateEntry{}, false
}

// Len returns the number of rate rows
func (t RateTable) Len() int {
	return len(t.entries)
}

// LookupOrder decides whether the nationwide rate or the region rate is
// tried first
type LookupOrder int

const (
	NationwideFirst LookupOrder = iota
	RegionFirst
)

func (o LookupOrder) String() string {
	if o == RegionFirst {
		return "region_first"
	}
	return "nationwide_first"
}

// ResolveFee looks up the fee for method and destination. Both the
// nationwide and the region rate are tried, in the given order, before
// failing. The region lookup is skipped when no region is known.
func ResolveFee(method string, dest models.Destination, table RateTable, order LookupOrder) (int64, error) {
	regions := []string{models.Nationwide, dest.Region}
	if order == RegionFirst {
		regions = []string{dest.Region, models.Nationwide}
	}

	for _, region := range regions {
		if region == "" {
			continue
		}
		entry, ok := table.Find(method, region)
		if !ok {
			continue
		}
		if !entry.HasFee {
			return 0, fmt.Errorf("%w: %s / %s has no fee", ErrRateNotFound, method, region)
		}
		return entry.Fee, nil
	}

	if !dest.HasRegion() {
		return 0, fmt.Errorf("%w: method %s has no nationwide rate", ErrRegionUnresolved, method)
	}
	return 0, fmt.Errorf("%w: %s / %s", ErrRateNotFound, method, dest.Region)
}
