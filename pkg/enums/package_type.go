package enums

import "fmt"

// PackageType distinguishes regular parcels from oversized freight.
type PackageType string

const (
	PackageTypeStandard  PackageType = "standard"
	PackageTypeOversized PackageType = "oversized"
)

var validPackageTypes = []PackageType{
	PackageTypeStandard,
	PackageTypeOversized,
}

// String implements fmt.Stringer.
func (p PackageType) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PackageType) IsValid() bool {
	for _, candidate := range validPackageTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePackageType converts raw input into a PackageType.
func ParsePackageType(value string) (PackageType, error) {
	for _, candidate := range validPackageTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid package type %q", value)
}
