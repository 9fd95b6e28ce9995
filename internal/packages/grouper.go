package packages

import "github.com/angelmondragon/checkout-shipping/pkg/enums"

// Group partitions cart lines into packages keyed by normalized warehouse id.
// Packages are emitted in order of first occurrence; every line lands in exactly one package.
func Group(items []CartLineItem, dir Directory) []Package {
	order := make([]string, 0)
	grouped := make(map[string][]CartLineItem)
	for _, item := range items {
		key := dir.Normalize(item.WarehouseID)
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], item)
	}

	packages := make([]Package, 0, len(order))
	for _, key := range order {
		lines := grouped[key]
		pkg := Package{
			ID:              key,
			Type:            enums.PackageTypeStandard,
			Items:           lines,
			LockerSlotCount: 1,
		}
		if key != DefaultPackageKey {
			warehouse := key
			pkg.WarehouseID = &warehouse
		}
		for _, line := range lines {
			if line.IsOversized {
				pkg.Type = enums.PackageTypeOversized
				break
			}
		}
		pkg.WarehouseSubtotal = pkg.ItemsTotal()
		packages = append(packages, pkg)
	}
	return packages
}

// Requests projects packages into the item/quantity pairs sent to the shipping resolver.
func Requests(pkgs []Package) []Request {
	requests := make([]Request, 0, len(pkgs))
	for _, pkg := range pkgs {
		lines := make([]RequestItem, 0, len(pkg.Items))
		for _, item := range pkg.Items {
			lines = append(lines, RequestItem{VariantID: item.VariantID, Quantity: item.Quantity})
		}
		requests = append(requests, Request{PackageID: pkg.ID, Items: lines})
	}
	return requests
}

// Request is the resolver input for one package.
type Request struct {
	PackageID string        `json:"package_id"`
	Items     []RequestItem `json:"items"`
}

// RequestItem pairs a variant with its quantity.
type RequestItem struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}
