// Package slots splits a package's items across parcel-locker slots. The split
// must match the one the pricing backend assumes, so the walk order and merge
// rules are fixed.
package slots

import "github.com/angelmondragon/checkout-shipping/internal/packages"

// Split returns the items assigned to slotIndex when items are spread over totalSlots.
// With totalSlots <= 1 the items are returned unchanged.
func Split(items []packages.CartLineItem, slotIndex, totalSlots int) []packages.CartLineItem {
	if totalSlots <= 1 {
		return items
	}
	if slotIndex < 0 || slotIndex >= totalSlots {
		return []packages.CartLineItem{}
	}
	return SplitAll(items, totalSlots)[slotIndex]
}

// SplitAll returns every slot's items. Slot i holds at most ceil(total/totalSlots) units
// except the last one, which absorbs whatever remains.
func SplitAll(items []packages.CartLineItem, totalSlots int) [][]packages.CartLineItem {
	if totalSlots <= 1 {
		return [][]packages.CartLineItem{items}
	}

	totalQty := packages.TotalQuantity(items)
	perSlotTarget := (totalQty + totalSlots - 1) / totalSlots

	slots := make([][]packages.CartLineItem, totalSlots)
	for i := range slots {
		slots[i] = []packages.CartLineItem{}
	}

	currentSlot := 0
	currentSlotFillCount := 0
	lastSlot := totalSlots - 1
	for _, item := range items {
		remaining := item.Quantity
		for remaining > 0 {
			room := perSlotTarget - currentSlotFillCount
			if currentSlot == lastSlot || room > remaining {
				room = remaining
			}
			if room > 0 {
				slots[currentSlot] = place(slots[currentSlot], item, room)
				currentSlotFillCount += room
				remaining -= room
			}
			if currentSlotFillCount >= perSlotTarget && currentSlot < lastSlot {
				currentSlot++
				currentSlotFillCount = 0
			}
		}
	}
	return slots
}

func place(slot []packages.CartLineItem, item packages.CartLineItem, qty int) []packages.CartLineItem {
	for i := range slot {
		if slot[i].ProductID == item.ProductID {
			slot[i].Quantity += qty
			return slot
		}
	}
	entry := item
	entry.Quantity = qty
	return append(slot, entry)
}
