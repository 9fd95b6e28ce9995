package packages

import (
	"github.com/angelmondragon/checkout-shipping/pkg/enums"
	"github.com/angelmondragon/checkout-shipping/pkg/money"
)

// DefaultPackageKey is the grouping key for items without a recognized warehouse.
const DefaultPackageKey = "default"

// CartLineItem is a read-only cart line handed to the grouper.
type CartLineItem struct {
	ProductID   string      `json:"product_id" validate:"required"`
	ProductName string      `json:"product_name"`
	VariantID   string      `json:"variant_id" validate:"required"`
	Quantity    int         `json:"quantity" validate:"min=1"`
	IsOversized bool        `json:"is_oversized"`
	WarehouseID *string     `json:"warehouse_id,omitempty"`
	ImageRef    *string     `json:"image_ref,omitempty"`
	UnitPrice   money.Money `json:"unit_price"`
}

// Package is one physically distinct shipment.
type Package struct {
	ID                    string            `json:"id"`
	Type                  enums.PackageType `json:"type"`
	WarehouseID           *string           `json:"warehouse_id,omitempty"`
	Items                 []CartLineItem    `json:"items"`
	IsLockerEligible      bool              `json:"is_locker_eligible"`
	IsCarrierOnlyEligible bool              `json:"is_carrier_only_eligible"`
	IsPickupOnly          bool              `json:"is_pickup_only"`
	WarehouseSubtotal     money.Money       `json:"warehouse_subtotal"`
	HasFreeShipping       bool              `json:"has_free_shipping"`
	LockerSlotCount       int               `json:"locker_slot_count"`
}

// TotalQuantity sums item quantities.
func (p Package) TotalQuantity() int {
	return TotalQuantity(p.Items)
}

// SlotCount returns LockerSlotCount clamped to at least one.
func (p Package) SlotCount() int {
	if p.LockerSlotCount < 1 {
		return 1
	}
	return p.LockerSlotCount
}

// ItemsTotal is the sum of unit price times quantity.
func (p Package) ItemsTotal() money.Money {
	var total money.Money
	for _, item := range p.Items {
		total = total.Add(item.UnitPrice.MulInt(item.Quantity))
	}
	return total
}

// TotalQuantity sums the quantity of the given items.
func TotalQuantity(items []CartLineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}
