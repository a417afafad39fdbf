package catalog

import (
	"strings"

	"checkout-service/internal/models"
	"checkout-service/internal/refdata"
)

const activeStatus = "on"

// Index maps product codes to catalog records. It is built once and never
// modified afterwards.
type Index struct {
	products map[string]models.ProductRecord
	order    []string
}

// Group is a display grouping of active products
type Group struct {
	Name     string                 `json:"name"`
	Products []models.ProductRecord `json:"products"`
}

// New builds an index from records. A repeated code replaces the earlier
// record but keeps its original position.
func New(records []models.ProductRecord) *Index {
	idx := &Index{
		products: make(map[string]models.ProductRecord, len(records)),
		order:    make([]string, 0, len(records)),
	}

	for _, rec := range records {
		if _, seen := idx.products[rec.Code]; !seen {
			idx.order = append(idx.order, rec.Code)
		}
		idx.products[rec.Code] = rec
	}

	return idx
}

// FromRows builds an index from parsed catalog rows
func FromRows(rows []refdata.Row) *Index {
	records := make([]models.ProductRecord, 0, len(rows))
	for _, row := range rows {
		if row.Get("productcd") == "" {
			continue
		}
		records = append(records, ProductFromRow(row))
	}
	return New(records)
}

// ProductFromRow converts one catalog row into a record
func ProductFromRow(row refdata.Row) models.ProductRecord {
	code := row.Get("productcd")

	group := row.Get("group")
	if group == "" {
		group = models.DefaultGroup
	}

	return models.ProductRecord{
		Code:        code,
		FullName:    row.Get("p_fullname"),
		UnitPrice:   refdata.ParseAmount(row.Get("price")),
		SizeWeight:  SizeWeight(code),
		Group:       group,
		Active:      strings.TrimSpace(row.Get("status")) == activeStatus,
		Description: row.Get("description"),
	}
}

// Lookup returns the active record for code
func (i *Index) Lookup(code string) (models.ProductRecord, bool) {
	rec, ok := i.products[code]
	if !ok || !rec.Active {
		return models.ProductRecord{}, false
	}
	return rec, true
}

// Active returns all active records in catalog order
func (i *Index) Active() []models.ProductRecord {
	out := make([]models.ProductRecord, 0, len(i.order))
	for _, code := range i.order {
		if rec := i.products[code]; rec.Active {
			out = append(out, rec)
		}
	}
	return out
}

// Groups returns active records grouped by display group, groups ordered by
// first appearance
func (i *Index) Groups() []Group {
	var groups []Group
	pos := make(map[string]int)

	for _, rec := range i.Active() {
		n, ok := pos[rec.Group]
		if !ok {
			n = len(groups)
			pos[rec.Group] = n
			groups = append(groups, Group{Name: rec.Group})
		}
		groups[n].Products = append(groups[n].Products, rec)
	}

	return groups
}

// Len returns the number of indexed codes, active or not
func (i *Index) Len() int {
	return len(i.order)
}
