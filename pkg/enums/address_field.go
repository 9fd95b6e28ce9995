package enums

import "fmt"

// AddressField names an editable field of a per-package delivery address override.
type AddressField string

const (
	AddressFieldFirstName  AddressField = "firstName"
	AddressFieldLastName   AddressField = "lastName"
	AddressFieldPhone      AddressField = "phone"
	AddressFieldStreet     AddressField = "street"
	AddressFieldApartment  AddressField = "apartment"
	AddressFieldPostalCode AddressField = "postalCode"
	AddressFieldCity       AddressField = "city"
)

var validAddressFields = []AddressField{
	AddressFieldFirstName,
	AddressFieldLastName,
	AddressFieldPhone,
	AddressFieldStreet,
	AddressFieldApartment,
	AddressFieldPostalCode,
	AddressFieldCity,
}

// RequiredAddressFields lists the fields that must be non-empty for an override to be usable.
var RequiredAddressFields = []AddressField{
	AddressFieldFirstName,
	AddressFieldLastName,
	AddressFieldStreet,
	AddressFieldPostalCode,
	AddressFieldCity,
	AddressFieldPhone,
}

// AllAddressFields returns every editable field in form order.
func AllAddressFields() []AddressField {
	return append([]AddressField(nil), validAddressFields...)
}

// String implements fmt.Stringer.
func (f AddressField) String() string {
	return string(f)
}

// IsValid reports whether the value is known.
func (f AddressField) IsValid() bool {
	for _, candidate := range validAddressFields {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseAddressField converts raw input into an AddressField.
func ParseAddressField(value string) (AddressField, error) {
	for _, candidate := range validAddressFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid address field %q", value)
}
