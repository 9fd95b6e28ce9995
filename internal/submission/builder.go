// Package submission turns a finished checkout into the order payload.
package submission

import (
	"fmt"

	"github.com/angelmondragon/checkout-shipping/internal/packages"
	"github.com/angelmondragon/checkout-shipping/internal/selection"
	"github.com/angelmondragon/checkout-shipping/internal/shippingoptions"
	"github.com/angelmondragon/checkout-shipping/internal/slots"
	"github.com/angelmondragon/checkout-shipping/internal/wizard"
	"github.com/angelmondragon/checkout-shipping/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-shipping/pkg/errors"
	"github.com/angelmondragon/checkout-shipping/pkg/money"
	"go.uber.org/multierr"
)

// Build assembles the order payload. It refuses to build anything while a
// requirement is open and reports every open requirement at once.
func Build(cart []packages.CartLineItem, state wizard.State, store *selection.Store) (*OrderSubmission, error) {
	if missing := Requirements(cart, state, store); len(missing) > 0 {
		return nil, IncompleteError(missing)
	}

	shipments := Shipments(store)
	shippingTotal := ShippingTotal(shipments)
	itemsTotal := ItemsTotal(cart)

	return &OrderSubmission{
		Customer:        *state.Address,
		Payment:         *state.Payment,
		AcceptTerms:     state.AcceptTerms,
		PrimaryMethodID: primaryMethod(shipments),
		Shipments:       shipments,
		ItemsTotal:      itemsTotal,
		ShippingTotal:   shippingTotal,
		GrandTotal:      itemsTotal.Add(shippingTotal),
	}, nil
}

// Shipments expands every package with a selected method into shipment lines.
// Packages without a usable method are skipped.
func Shipments(store *selection.Store) []ShipmentLine {
	entries := store.Packages()
	shipments := make([]ShipmentLine, 0, len(entries))
	for _, entry := range entries {
		method, ok := store.SelectedMethod(entry.Package.ID)
		if !ok {
			continue
		}
		sel, _ := store.Selection(entry.Package.ID)
		shipments = append(shipments, expand(entry, sel, method)...)
	}
	return shipments
}

// ShippingTotal sums line prices.
func ShippingTotal(lines []ShipmentLine) money.Money {
	var total money.Money
	for _, line := range lines {
		total = total.Add(line.Price)
	}
	return total
}

// ItemsTotal sums unit price times quantity over the cart.
func ItemsTotal(cart []packages.CartLineItem) money.Money {
	var total money.Money
	for _, item := range cart {
		total = total.Add(item.UnitPrice.MulInt(item.Quantity))
	}
	return total
}

// Requirements lists everything that blocks submission, checkout-level
// requirements first followed by per-package ones in package order.
func Requirements(cart []packages.CartLineItem, state wizard.State, store *selection.Store) []selection.Requirement {
	var missing []selection.Requirement
	if len(cart) == 0 {
		missing = append(missing, selection.Requirement{Kind: enums.RequirementCartEmpty})
	}
	if state.Address == nil {
		missing = append(missing, selection.Requirement{Kind: enums.RequirementAddressMissing})
	}
	if state.Payment == nil {
		missing = append(missing, selection.Requirement{Kind: enums.RequirementPaymentMissing})
	}
	if !state.AcceptTerms {
		missing = append(missing, selection.Requirement{Kind: enums.RequirementTermsNotAccepted})
	}
	return append(missing, selection.NewValidator(store).MissingRequirements()...)
}

// IncompleteError wraps the open requirements into an INCOMPLETE_SELECTION error.
func IncompleteError(missing []selection.Requirement) error {
	var cause error
	for _, req := range missing {
		cause = multierr.Append(cause, req)
	}
	return pkgerrors.Wrap(pkgerrors.CodeIncompleteSelection, cause, fmt.Sprintf("%d checkout requirement(s) missing", len(missing))).
		WithDetails(map[string]any{"requirements": missing})
}

func expand(entry shippingoptions.PackageOptions, sel selection.PackageSelection, method shippingoptions.MethodOption) []ShipmentLine {
	pkg := entry.Package
	base := ShipmentLine{
		ID:              pkg.ID,
		PackageID:       pkg.ID,
		PackageType:     pkg.Type,
		WarehouseID:     pkg.WarehouseID,
		MethodID:        method.ID,
		MethodKind:      method.Kind,
		Price:           method.Price,
		HasFreeShipping: pkg.HasFreeShipping,
	}

	if !method.IsLocker() {
		base.Items = toShipmentItems(pkg.Items)
		if sel.UseCustomAddress && sel.CustomAddress != nil {
			addr := *sel.CustomAddress
			base.CustomAddress = &addr
		}
		return []ShipmentLine{base}
	}

	slotCount := pkg.SlotCount()
	if slotCount == 1 {
		base.Items = toShipmentItems(pkg.Items)
		base.Locker = lockerFor(sel, 0)
		return []ShipmentLine{base}
	}

	perSlot := method.Price.DivideBy(slotCount)
	lines := make([]ShipmentLine, 0, slotCount)
	for idx, items := range slots.SplitAll(pkg.Items, slotCount) {
		line := base
		slotIndex := idx
		line.ID = fmt.Sprintf("%s-%d", pkg.ID, idx)
		line.SlotIndex = &slotIndex
		line.Price = perSlot
		line.Items = toShipmentItems(items)
		line.Locker = lockerFor(sel, idx)
		lines = append(lines, line)
	}
	return lines
}

func lockerFor(sel selection.PackageSelection, slotIndex int) *LockerDestination {
	slot, ok := sel.Slot(slotIndex)
	if !ok || !slot.Resolved() {
		return nil
	}
	dest := &LockerDestination{Code: *slot.LockerCode}
	if slot.LockerAddress != nil {
		addr := *slot.LockerAddress
		dest.Address = &addr
	}
	return dest
}

// primaryMethod picks the method id used by most lines; ties go to the one seen first.
func primaryMethod(lines []ShipmentLine) string {
	counts := map[string]int{}
	var order []string
	for _, line := range lines {
		if counts[line.MethodID] == 0 {
			order = append(order, line.MethodID)
		}
		counts[line.MethodID]++
	}
	best, bestCount := "", 0
	for _, id := range order {
		if counts[id] > bestCount {
			best, bestCount = id, counts[id]
		}
	}
	return best
}
