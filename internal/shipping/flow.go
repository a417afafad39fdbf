package shipping

import (
	"strings"

	"checkout-service/internal/models"
)

// Flow is the address-capture variant chosen by the shipping method
type Flow string

const (
	FlowHomeDelivery Flow = "home_delivery"
	FlowPostalPickup Flow = "postal_pickup"
	FlowAnonymous    Flow = "anonymous"
)

const (
	postalCounterMarker = "郵便局"
	anonymousMarker     = "匿名"
)

// FlowFor picks the capture flow from a method label
func FlowFor(method string) Flow {
	switch {
	case strings.Contains(method, postalCounterMarker):
		return FlowPostalPickup
	case strings.Contains(method, anonymousMarker):
		return FlowAnonymous
	default:
		return FlowHomeDelivery
	}
}

// DestinationStrategy describes how a flow obtains its destination region
type DestinationStrategy int

const (
	// AddressDerived parses the region out of address line 1
	AddressDerived DestinationStrategy = iota
	// PreselectedRegion takes address line 1 as an already chosen region
	PreselectedRegion
	// NoDestination never yields a region
	NoDestination
)

// Destination resolves the destination from captured contact fields
func (s DestinationStrategy) Destination(contact models.ContactInfo) models.Destination {
	switch s {
	case AddressDerived:
		return models.Destination{Region: ExtractRegion(contact.Address1)}
	case PreselectedRegion:
		return models.Destination{Region: strings.TrimSpace(contact.Address1)}
	default:
		return models.Destination{}
	}
}

// Strategy returns the destination strategy of the flow
func (f Flow) Strategy() DestinationStrategy {
	switch f {
	case FlowPostalPickup, FlowAnonymous:
		return PreselectedRegion
	default:
		return AddressDerived
	}
}

// LookupOrder returns the rate lookup order of the flow
func (f Flow) LookupOrder() LookupOrder {
	switch f {
	case FlowPostalPickup, FlowAnonymous:
		return RegionFirst
	default:
		return NationwideFirst
	}
}

// Placeholder address line 2 written by the region-only flows
const (
	postalPickupAddressNote = "（郵便局受け取り）"
	anonymousAddressNote    = "（匿名配送）"
)

// AddressForm is the raw input of the address stage. Region is used by the
// flows with a pre-selected region and PostOffice by postal pickup only.
type AddressForm struct {
	Name       string `json:"name"`
	Zipcode    string `json:"zipcode"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	Address3   string `json:"address3"`
	Region     string `json:"prefecture"`
	PostOffice string `json:"post_office"`
	Email      string `json:"email"`
	Tel        string `json:"tel"`
}

// Contact shapes form into the contact record kept for the flow
func (f Flow) Contact(form AddressForm, method string) models.ContactInfo {
	contact := models.ContactInfo{
		Name:           strings.TrimSpace(form.Name),
		Zipcode:        strings.TrimSpace(form.Zipcode),
		Email:          strings.TrimSpace(form.Email),
		ShippingMethod: method,
	}

	switch f {
	case FlowPostalPickup:
		contact.Address1 = strings.TrimSpace(form.Region)
		contact.Address2 = postalPickupAddressNote
		contact.Address3 = strings.TrimSpace(form.PostOffice)
		contact.Tel = strings.TrimSpace(form.Tel)
	case FlowAnonymous:
		contact.Address1 = strings.TrimSpace(form.Region)
		contact.Address2 = anonymousAddressNote
	default:
		contact.Address1 = strings.TrimSpace(form.Address1)
		contact.Address2 = strings.TrimSpace(form.Address2)
		contact.Address3 = strings.TrimSpace(form.Address3)
		contact.Tel = strings.TrimSpace(form.Tel)
	}

	return contact
}
