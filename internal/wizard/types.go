package wizard

import (
	"fmt"

	"github.com/angelmondragon/checkout-shipping/pkg/money"
)

// Step is a position in the checkout wizard.
type Step int

const (
	StepAddress Step = iota
	StepShipping
	StepPayment
	StepSummary
)

var stepNames = map[Step]string{
	StepAddress:  "address",
	StepShipping: "shipping",
	StepPayment:  "payment",
	StepSummary:  "summary",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// IsValid reports whether s is one of the four wizard steps.
func (s Step) IsValid() bool {
	return s >= StepAddress && s <= StepSummary
}

// AddressData is the buyer's primary contact and delivery address.
type AddressData struct {
	FirstName  string  `json:"first_name" validate:"required"`
	LastName   string  `json:"last_name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      string  `json:"phone" validate:"required"`
	Street     string  `json:"street" validate:"required"`
	Apartment  *string `json:"apartment,omitempty"`
	PostalCode string  `json:"postal_code" validate:"required"`
	City       string  `json:"city" validate:"required"`
	Country    string  `json:"country" validate:"omitempty,len=2"`
	Company    *string `json:"company,omitempty"`
	TaxID      *string `json:"tax_id,omitempty"`
}

// ShippingSummary is the shipping overview captured on the Shipping step.
type ShippingSummary struct {
	PackageCount    int         `json:"package_count"`
	ShipmentCount   int         `json:"shipment_count"`
	ShippingTotal   money.Money `json:"shipping_total"`
	HasFreeShipping bool        `json:"has_free_shipping"`
}

// PaymentSelection is the payment method picked on the Payment step.
type PaymentSelection struct {
	Method   string  `json:"method" validate:"required,max=64"`
	Provider *string `json:"provider,omitempty"`
}

// State is everything the wizard holds between requests.
type State struct {
	Step        Step              `json:"step"`
	Address     *AddressData      `json:"address,omitempty"`
	Shipping    *ShippingSummary  `json:"shipping,omitempty"`
	Payment     *PaymentSelection `json:"payment,omitempty"`
	AcceptTerms bool              `json:"accept_terms"`
}

func (s State) clone() State {
	out := s
	if s.Address != nil {
		addr := *s.Address
		addr.Apartment = cloneString(s.Address.Apartment)
		addr.Company = cloneString(s.Address.Company)
		addr.TaxID = cloneString(s.Address.TaxID)
		out.Address = &addr
	}
	if s.Shipping != nil {
		shipping := *s.Shipping
		out.Shipping = &shipping
	}
	if s.Payment != nil {
		payment := *s.Payment
		payment.Provider = cloneString(s.Payment.Provider)
		out.Payment = &payment
	}
	return out
}

// Transition describes one step change. SubmitReady is only evaluated when
// the target is the Summary step.
type Transition struct {
	From        Step `json:"from"`
	To          Step `json:"to"`
	SubmitReady bool `json:"submit_ready"`
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
