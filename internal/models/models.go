package models

// ProductRecord represents one catalog row
type ProductRecord struct {
	Code        string `json:"productcd"`
	FullName    string `json:"p_fullname"`
	UnitPrice   int64  `json:"price"`
	SizeWeight  int64  `json:"size"`
	Group       string `json:"group"`
	Active      bool   `json:"active"`
	Description string `json:"description,omitempty"`
}

// OrderLine represents a selected product and its quantity
type OrderLine struct {
	ProductCode string `json:"productcd"`
	FullName    string `json:"p_fullname"`
	Quantity    int    `json:"quantity"`
}

// CartTotals holds the derived totals of a cart
type CartTotals struct {
	TotalPrice int64 `json:"total_price"`
	TotalSize  int64 `json:"total_size"`
}

// Selection is a raw (product code, quantity) pick from the buyer
type Selection struct {
	ProductCode string `json:"product_code" binding:"required"`
	Quantity    int    `json:"quantity"`
}

// ShippingRateEntry represents one row of the rate table
type ShippingRateEntry struct {
	Method string `json:"method"`
	Region string `json:"prefecture"`
	Fee    int64  `json:"shipfee"`
	// HasFee is false when the shipfee column was blank or not a number.
	HasFee bool `json:"-"`
}

// Destination describes where an order ships to. An empty Region means the
// region could not be determined.
type Destination struct {
	Region string `json:"region,omitempty"`
}

// HasRegion reports whether a specific region is known
func (d Destination) HasRegion() bool {
	return d.Region != ""
}

// ContactInfo holds the buyer fields captured on the address stage
type ContactInfo struct {
	Name           string `json:"name"`
	Zipcode        string `json:"zipcode,omitempty"`
	Address1       string `json:"address1,omitempty"`
	Address2       string `json:"address2,omitempty"`
	Address3       string `json:"address3,omitempty"`
	Email          string `json:"email"`
	Tel            string `json:"tel,omitempty"`
	ShippingMethod string `json:"shipping_method,omitempty"`
}

// Nationwide is the rate-table region meaning a flat fee for every region
const Nationwide = "全国一律"

// DefaultGroup is used for catalog rows with a blank group column
const DefaultGroup = "その他"
