package checkout

import (
	"time"

	"github.com/angelmondragon/checkout-shipping/internal/packages"
	"github.com/angelmondragon/checkout-shipping/internal/selection"
	"github.com/angelmondragon/checkout-shipping/internal/shippingoptions"
	"github.com/angelmondragon/checkout-shipping/internal/wizard"
)

// Session is the persisted state of one checkout. CartRevision increases on
// every cart change; OptionsRevision is the cart revision the stored packages
// were resolved for. Version increases on every successful save.
type Session struct {
	ID              string                           `json:"id"`
	Version         int64                            `json:"version"`
	CustomerID      *string                          `json:"customer_id,omitempty"`
	Cart            []packages.CartLineItem          `json:"cart"`
	CartRevision    int64                            `json:"cart_revision"`
	OptionsRevision int64                            `json:"options_revision"`
	Packages        []shippingoptions.PackageOptions `json:"packages"`
	Selections      []selection.PackageSelection     `json:"selections"`
	Wizard          wizard.State                     `json:"wizard"`
	Warnings        []string                         `json:"warnings"`
	CreatedAt       time.Time                        `json:"created_at"`
	UpdatedAt       time.Time                        `json:"updated_at"`
}

// OptionsPending reports whether the cart changed since options were last resolved.
func (s *Session) OptionsPending() bool {
	return s.OptionsRevision != s.CartRevision
}

func (s *Session) store() *selection.Store {
	return selection.Restore(s.Packages, s.Selections)
}

func (s *Session) apply(store *selection.Store) {
	s.Packages = store.Packages()
	s.Selections = store.Selections()
}
