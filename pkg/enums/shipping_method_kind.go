package enums

import "fmt"

// ShippingMethodKind classifies how a shipping method delivers a package.
type ShippingMethodKind string

const (
	ShippingMethodKindCourier ShippingMethodKind = "courier"
	ShippingMethodKindLocker  ShippingMethodKind = "locker"
	ShippingMethodKindPickup  ShippingMethodKind = "pickup"
	ShippingMethodKindCarrier ShippingMethodKind = "carrier"
)

var validShippingMethodKinds = []ShippingMethodKind{
	ShippingMethodKindCourier,
	ShippingMethodKindLocker,
	ShippingMethodKindPickup,
	ShippingMethodKindCarrier,
}

// String implements fmt.Stringer.
func (k ShippingMethodKind) String() string {
	return string(k)
}

// IsValid reports whether the value is known.
func (k ShippingMethodKind) IsValid() bool {
	for _, candidate := range validShippingMethodKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsLocker reports whether the method delivers to parcel lockers.
func (k ShippingMethodKind) IsLocker() bool {
	return k == ShippingMethodKindLocker
}

// ParseShippingMethodKind converts raw input into a ShippingMethodKind.
func ParseShippingMethodKind(value string) (ShippingMethodKind, error) {
	for _, candidate := range validShippingMethodKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method kind %q", value)
}
