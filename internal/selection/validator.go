package selection

import (
	"fmt"

	"github.com/angelmondragon/checkout-shipping/pkg/enums"
)

// Requirement is one thing still missing before a package can ship.
type Requirement struct {
	PackageID string                `json:"package_id,omitempty"`
	Kind      enums.RequirementKind `json:"kind"`
	SlotIndex *int                  `json:"slot_index,omitempty"`
	Fields    []enums.AddressField  `json:"fields,omitempty"`
}

// Error renders the requirement as a readable message.
func (r Requirement) Error() string {
	switch r.Kind {
	case enums.RequirementMethodMissing:
		return fmt.Sprintf("package %s: no shipping method selected", r.PackageID)
	case enums.RequirementMethodUnavailable:
		return fmt.Sprintf("package %s: selected shipping method is not available", r.PackageID)
	case enums.RequirementLockerSlotUnresolved:
		if r.SlotIndex != nil {
			return fmt.Sprintf("package %s: locker slot %d unresolved", r.PackageID, *r.SlotIndex)
		}
		return fmt.Sprintf("package %s: locker slot unresolved", r.PackageID)
	case enums.RequirementCustomAddressIncomplete:
		return fmt.Sprintf("package %s: custom address incomplete %v", r.PackageID, r.Fields)
	}
	if r.PackageID != "" {
		return fmt.Sprintf("package %s: %s", r.PackageID, r.Kind)
	}
	return string(r.Kind)
}

// Validator derives readiness from a Store. It holds no state of its own, so every
// call reflects the store as it is now.
type Validator struct {
	store *Store
}

// NewValidator binds a validator to store.
func NewValidator(store *Store) Validator {
	return Validator{store: store}
}

// IsPackageReady reports whether the package's selection is complete.
func (v Validator) IsPackageReady(packageID string) bool {
	if !v.store.Has(packageID) {
		return false
	}
	return len(v.PackageRequirements(packageID)) == 0
}

// IsWizardReadyToSubmit is true when every current package is ready.
func (v Validator) IsWizardReadyToSubmit() bool {
	for _, id := range v.store.order {
		if !v.IsPackageReady(id) {
			return false
		}
	}
	return true
}

// MissingRequirements lists every open requirement across packages, in package order.
func (v Validator) MissingRequirements() []Requirement {
	var out []Requirement
	for _, id := range v.store.order {
		out = append(out, v.PackageRequirements(id)...)
	}
	return out
}

// PackageRequirements lists the open requirements of one package.
func (v Validator) PackageRequirements(packageID string) []Requirement {
	entry, ok := v.store.options[packageID]
	if !ok {
		return nil
	}
	sel := v.store.selections[packageID]

	if sel.MethodID == nil {
		return []Requirement{{PackageID: packageID, Kind: enums.RequirementMethodMissing}}
	}
	method, found := entry.Method(*sel.MethodID)
	if !found || !method.IsAvailable {
		return []Requirement{{PackageID: packageID, Kind: enums.RequirementMethodUnavailable}}
	}

	if method.IsLocker() {
		var missing []Requirement
		for idx := 0; idx < entry.Package.SlotCount(); idx++ {
			slot, ok := sel.Slot(idx)
			if ok && slot.Resolved() {
				continue
			}
			slotIndex := idx
			missing = append(missing, Requirement{PackageID: packageID, Kind: enums.RequirementLockerSlotUnresolved, SlotIndex: &slotIndex})
		}
		return missing
	}

	if sel.UseCustomAddress {
		var address CustomAddress
		if sel.CustomAddress != nil {
			address = *sel.CustomAddress
		}
		if fields := address.MissingFields(); len(fields) > 0 {
			return []Requirement{{PackageID: packageID, Kind: enums.RequirementCustomAddressIncomplete, Fields: fields}}
		}
	}
	return nil
}
