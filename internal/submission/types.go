package submission

import (
	"github.com/angelmondragon/checkout-shipping/internal/packages"
	"github.com/angelmondragon/checkout-shipping/internal/selection"
	"github.com/angelmondragon/checkout-shipping/internal/wizard"
	"github.com/angelmondragon/checkout-shipping/pkg/enums"
	"github.com/angelmondragon/checkout-shipping/pkg/money"
)

// ShipmentItem is one product quantity inside a shipment line.
type ShipmentItem struct {
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name,omitempty"`
	VariantID   string      `json:"variant_id"`
	Quantity    int         `json:"quantity"`
	UnitPrice   money.Money `json:"unit_price"`
}

// LockerDestination is the parcel locker a shipment line is addressed to.
type LockerDestination struct {
	Code    string  `json:"code"`
	Address *string `json:"address,omitempty"`
}

// ShipmentLine is one physical shipment sent to the order API.
type ShipmentLine struct {
	ID              string                   `json:"id"`
	PackageID       string                   `json:"package_id"`
	PackageType     enums.PackageType        `json:"package_type"`
	WarehouseID     *string                  `json:"warehouse_id,omitempty"`
	SlotIndex       *int                     `json:"slot_index,omitempty"`
	MethodID        string                   `json:"method_id"`
	MethodKind      enums.ShippingMethodKind `json:"method_kind"`
	Price           money.Money              `json:"price"`
	HasFreeShipping bool                     `json:"has_free_shipping"`
	Items           []ShipmentItem           `json:"items"`
	Locker          *LockerDestination       `json:"locker,omitempty"`
	CustomAddress   *selection.CustomAddress `json:"custom_address,omitempty"`
}

// OrderSubmission is the payload handed to the order-creation API.
type OrderSubmission struct {
	Customer        wizard.AddressData      `json:"customer"`
	Payment         wizard.PaymentSelection `json:"payment"`
	AcceptTerms     bool                    `json:"accept_terms"`
	PrimaryMethodID string                  `json:"primary_method_id"`
	Shipments       []ShipmentLine          `json:"shipments"`
	ItemsTotal      money.Money             `json:"items_total"`
	ShippingTotal   money.Money             `json:"shipping_total"`
	GrandTotal      money.Money             `json:"grand_total"`
}

func toShipmentItems(items []packages.CartLineItem) []ShipmentItem {
	out := make([]ShipmentItem, 0, len(items))
	for _, item := range items {
		out = append(out, ShipmentItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			VariantID:   item.VariantID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return out
}
