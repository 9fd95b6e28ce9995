package shippingoptions

import (
	"context"

	"github.com/angelmondragon/checkout-shipping/internal/packages"
	"github.com/angelmondragon/checkout-shipping/pkg/enums"
	"github.com/angelmondragon/checkout-shipping/pkg/money"
)

// Resolver returns available shipping methods and package metadata for grouped packages.
type Resolver interface {
	Resolve(ctx context.Context, requests []packages.Request) (*Resolution, error)
}

// MethodOption is one shipping method offered for a package.
type MethodOption struct {
	ID                string                   `json:"id"`
	DisplayName       string                   `json:"display_name"`
	Kind              enums.ShippingMethodKind `json:"kind"`
	Price             money.Money              `json:"price"`
	IsAvailable       bool                     `json:"is_available"`
	EstimatedDelivery *string                  `json:"estimated_delivery,omitempty"`
}

// IsLocker reports whether the method delivers to parcel lockers.
func (m MethodOption) IsLocker() bool {
	return m.Kind.IsLocker()
}

// PackageOptions pairs an enriched package with its shipping methods.
type PackageOptions struct {
	Package packages.Package `json:"package"`
	Methods []MethodOption   `json:"shipping_methods"`
}

// Method looks up a method by id.
func (p PackageOptions) Method(methodID string) (MethodOption, bool) {
	for _, m := range p.Methods {
		if m.ID == methodID {
			return m, true
		}
	}
	return MethodOption{}, false
}

// FirstAvailable returns the first available method.
func (p PackageOptions) FirstAvailable() (MethodOption, bool) {
	for _, m := range p.Methods {
		if m.IsAvailable {
			return m, true
		}
	}
	return MethodOption{}, false
}

// Resolution is the resolver result.
type Resolution struct {
	Packages []PackageOptions `json:"packages_with_options"`
	Warnings []string         `json:"warnings"`
}
