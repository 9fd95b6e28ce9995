package selection

import (
	"strings"

	"github.com/angelmondragon/checkout-shipping/pkg/enums"
)

// LockerSlot is the locker chosen for one slot of a locker shipment.
type LockerSlot struct {
	SlotIndex     int     `json:"slot_index"`
	LockerCode    *string `json:"locker_code,omitempty"`
	LockerAddress *string `json:"locker_address,omitempty"`
}

// Resolved reports whether a locker code has been picked.
func (s LockerSlot) Resolved() bool {
	return s.LockerCode != nil && strings.TrimSpace(*s.LockerCode) != ""
}

// CustomAddress overrides the delivery address of a single package.
type CustomAddress struct {
	FirstName  string  `json:"first_name" validate:"required"`
	LastName   string  `json:"last_name" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Street     string  `json:"street" validate:"required"`
	Apartment  *string `json:"apartment,omitempty"`
	PostalCode string  `json:"postal_code" validate:"required"`
	City       string  `json:"city" validate:"required"`
}

// Get returns the value of field.
func (a CustomAddress) Get(field enums.AddressField) string {
	switch field {
	case enums.AddressFieldFirstName:
		return a.FirstName
	case enums.AddressFieldLastName:
		return a.LastName
	case enums.AddressFieldPhone:
		return a.Phone
	case enums.AddressFieldStreet:
		return a.Street
	case enums.AddressFieldApartment:
		if a.Apartment == nil {
			return ""
		}
		return *a.Apartment
	case enums.AddressFieldPostalCode:
		return a.PostalCode
	case enums.AddressFieldCity:
		return a.City
	}
	return ""
}

func (a *CustomAddress) set(field enums.AddressField, value string) {
	switch field {
	case enums.AddressFieldFirstName:
		a.FirstName = value
	case enums.AddressFieldLastName:
		a.LastName = value
	case enums.AddressFieldPhone:
		a.Phone = value
	case enums.AddressFieldStreet:
		a.Street = value
	case enums.AddressFieldApartment:
		if value == "" {
			a.Apartment = nil
			return
		}
		a.Apartment = &value
	case enums.AddressFieldPostalCode:
		a.PostalCode = value
	case enums.AddressFieldCity:
		a.City = value
	}
}

// MissingFields lists required fields that are blank.
func (a CustomAddress) MissingFields() []enums.AddressField {
	var missing []enums.AddressField
	for _, field := range enums.RequiredAddressFields {
		if strings.TrimSpace(a.Get(field)) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// PackageSelection is the user's choice for one package.
type PackageSelection struct {
	PackageID        string         `json:"package_id"`
	MethodID         *string        `json:"method_id,omitempty"`
	LockerSlots      []LockerSlot   `json:"locker_slots"`
	UseCustomAddress bool           `json:"use_custom_address"`
	CustomAddress    *CustomAddress `json:"custom_address,omitempty"`
}

// Slot returns the entry for slotIndex if present.
func (p PackageSelection) Slot(slotIndex int) (LockerSlot, bool) {
	for _, slot := range p.LockerSlots {
		if slot.SlotIndex == slotIndex {
			return slot, true
		}
	}
	return LockerSlot{}, false
}

func (p PackageSelection) clone() PackageSelection {
	out := p
	if p.MethodID != nil {
		id := *p.MethodID
		out.MethodID = &id
	}
	out.LockerSlots = append([]LockerSlot{}, p.LockerSlots...)
	if p.CustomAddress != nil {
		addr := *p.CustomAddress
		out.CustomAddress = &addr
	}
	return out
}
