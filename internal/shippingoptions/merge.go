package shippingoptions

import "github.com/angelmondragon/checkout-shipping/internal/packages"

// Merge overlays resolver metadata onto locally grouped packages. Items always come
// from the local grouping; packages the resolver did not return get no methods, and
// resolver entries for unknown package ids are dropped.
func Merge(grouped []packages.Package, res *Resolution) []PackageOptions {
	byID := map[string]PackageOptions{}
	if res != nil {
		for _, entry := range res.Packages {
			byID[entry.Package.ID] = entry
		}
	}

	merged := make([]PackageOptions, 0, len(grouped))
	for _, pkg := range grouped {
		entry, ok := byID[pkg.ID]
		if !ok {
			merged = append(merged, PackageOptions{Package: pkg, Methods: []MethodOption{}})
			continue
		}
		remote := entry.Package
		pkg.IsLockerEligible = remote.IsLockerEligible
		pkg.IsCarrierOnlyEligible = remote.IsCarrierOnlyEligible
		pkg.IsPickupOnly = remote.IsPickupOnly
		pkg.WarehouseSubtotal = remote.WarehouseSubtotal
		pkg.HasFreeShipping = remote.HasFreeShipping
		pkg.LockerSlotCount = remote.LockerSlotCount
		if pkg.LockerSlotCount < 1 {
			pkg.LockerSlotCount = 1
		}
		if remote.Type.IsValid() {
			pkg.Type = remote.Type
		}
		methods := entry.Methods
		if methods == nil {
			methods = []MethodOption{}
		}
		merged = append(merged, PackageOptions{Package: pkg, Methods: methods})
	}
	return merged
}
