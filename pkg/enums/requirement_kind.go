package enums

// RequirementKind identifies why a checkout cannot be submitted yet.
type RequirementKind string

const (
	RequirementMethodMissing           RequirementKind = "method_missing"
	RequirementMethodUnavailable       RequirementKind = "method_unavailable"
	RequirementLockerSlotUnresolved    RequirementKind = "locker_slot_unresolved"
	RequirementCustomAddressIncomplete RequirementKind = "custom_address_incomplete"
	RequirementTermsNotAccepted        RequirementKind = "terms_not_accepted"
	RequirementAddressMissing          RequirementKind = "address_missing"
	RequirementPaymentMissing          RequirementKind = "payment_missing"
	RequirementCartEmpty               RequirementKind = "cart_empty"
)

// String implements fmt.Stringer.
func (r RequirementKind) String() string {
	return string(r)
}
