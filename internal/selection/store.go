// Package selection holds the per-package shipping choices of one checkout
// session and decides when they are complete enough to submit.
package selection

import (
	"fmt"
	"sort"

	"github.com/angelmondragon/checkout-shipping/internal/shippingoptions"
	"github.com/angelmondragon/checkout-shipping/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-shipping/pkg/errors"
)

// Store keeps one selection per current package. It is owned by a single
// checkout session and is not safe for concurrent use.
type Store struct {
	order      []string
	options    map[string]shippingoptions.PackageOptions
	selections map[string]*PackageSelection
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		options:    map[string]shippingoptions.PackageOptions{},
		selections: map[string]*PackageSelection{},
	}
}

// Restore rebuilds a store from persisted options and selections.
func Restore(options []shippingoptions.PackageOptions, selections []PackageSelection) *Store {
	s := NewStore()
	for _, sel := range selections {
		copied := sel.clone()
		s.selections[sel.PackageID] = &copied
	}
	s.Sync(options)
	return s
}

// ErrStalePackage reports an operation on a package that is no longer part of the cart.
func ErrStalePackage(packageID string) error {
	return pkgerrors.New(pkgerrors.CodeStalePackage, fmt.Sprintf("package %s is no longer part of the cart", packageID)).
		WithDetails(map[string]any{"package_id": packageID})
}

// Sync replaces the package set after a cart recomputation. Selections for
// vanished packages are dropped, new packages default to their first available
// method, and surviving selections are trimmed to the new slot count.
func (s *Store) Sync(resolved []shippingoptions.PackageOptions) {
	options := make(map[string]shippingoptions.PackageOptions, len(resolved))
	order := make([]string, 0, len(resolved))
	selections := make(map[string]*PackageSelection, len(resolved))

	for _, entry := range resolved {
		id := entry.Package.ID
		if _, dup := options[id]; dup {
			continue
		}
		options[id] = entry
		order = append(order, id)

		sel, ok := s.selections[id]
		if !ok {
			fresh := PackageSelection{PackageID: id, LockerSlots: []LockerSlot{}}
			if method, found := entry.FirstAvailable(); found {
				methodID := method.ID
				fresh.MethodID = &methodID
			}
			sel = &fresh
		}
		s.normalize(sel, entry)
		selections[id] = sel
	}

	s.order = order
	s.options = options
	s.selections = selections
}

func (s *Store) normalize(sel *PackageSelection, entry shippingoptions.PackageOptions) {
	if sel.LockerSlots == nil {
		sel.LockerSlots = []LockerSlot{}
	}
	locker := false
	if sel.MethodID != nil {
		if method, ok := entry.Method(*sel.MethodID); ok {
			locker = method.IsLocker()
		}
	}
	if !locker {
		sel.LockerSlots = []LockerSlot{}
		return
	}
	sel.UseCustomAddress = false
	limit := entry.Package.SlotCount()
	kept := sel.LockerSlots[:0]
	for _, slot := range sel.LockerSlots {
		if slot.SlotIndex >= 0 && slot.SlotIndex < limit {
			kept = append(kept, slot)
		}
	}
	sel.LockerSlots = kept
}

// SelectMethod sets the package's method. A non-locker method clears the locker
// slots; a locker method switches off the custom address.
func (s *Store) SelectMethod(packageID, methodID string) error {
	sel, entry, err := s.lookup(packageID)
	if err != nil {
		return err
	}
	method, ok := entry.Method(methodID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method").
			WithDetails(map[string]any{"package_id": packageID, "method_id": methodID})
	}

	id := method.ID
	sel.MethodID = &id
	if method.IsLocker() {
		sel.UseCustomAddress = false
	} else {
		sel.LockerSlots = []LockerSlot{}
	}
	return nil
}

// SetLockerSlot upserts the locker chosen for slotIndex. It does nothing when the
// package's current method is not a locker method.
func (s *Store) SetLockerSlot(packageID string, slotIndex int, code, address *string) error {
	sel, entry, err := s.lookup(packageID)
	if err != nil {
		return err
	}
	if !s.isLocker(sel, entry) {
		return nil
	}
	if slotIndex < 0 || slotIndex >= entry.Package.SlotCount() {
		return pkgerrors.New(pkgerrors.CodeValidation, "locker slot out of range").
			WithDetails(map[string]any{"package_id": packageID, "slot_index": slotIndex, "slot_count": entry.Package.SlotCount()})
	}

	slot := LockerSlot{SlotIndex: slotIndex, LockerCode: copyString(code), LockerAddress: copyString(address)}
	for i := range sel.LockerSlots {
		if sel.LockerSlots[i].SlotIndex == slotIndex {
			sel.LockerSlots[i] = slot
			return nil
		}
	}
	sel.LockerSlots = append(sel.LockerSlots, slot)
	sort.Slice(sel.LockerSlots, func(i, j int) bool {
		return sel.LockerSlots[i].SlotIndex < sel.LockerSlots[j].SlotIndex
	})
	return nil
}

// ToggleCustomAddress flips the custom address flag. The first activation starts
// from an empty address. Locker deliveries ignore the call.
func (s *Store) ToggleCustomAddress(packageID string) error {
	sel, entry, err := s.lookup(packageID)
	if err != nil {
		return err
	}
	if s.isLocker(sel, entry) {
		return nil
	}
	sel.UseCustomAddress = !sel.UseCustomAddress
	if sel.UseCustomAddress && sel.CustomAddress == nil {
		sel.CustomAddress = &CustomAddress{}
	}
	return nil
}

// UpdateCustomAddressField writes a single override field.
func (s *Store) UpdateCustomAddressField(packageID string, field enums.AddressField, value string) error {
	sel, _, err := s.lookup(packageID)
	if err != nil {
		return err
	}
	if !field.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown address field").
			WithDetails(map[string]any{"field": string(field)})
	}
	if sel.CustomAddress == nil {
		sel.CustomAddress = &CustomAddress{}
	}
	sel.CustomAddress.set(field, value)
	return nil
}

// Has reports whether packageID is a current package.
func (s *Store) Has(packageID string) bool {
	_, ok := s.options[packageID]
	return ok
}

// Selection returns a copy of the package's selection.
func (s *Store) Selection(packageID string) (PackageSelection, bool) {
	sel, ok := s.selections[packageID]
	if !ok {
		return PackageSelection{}, false
	}
	return sel.clone(), true
}

// Selections returns copies of all selections in package order.
func (s *Store) Selections() []PackageSelection {
	out := make([]PackageSelection, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.selections[id].clone())
	}
	return out
}

// Packages returns the current packages with their methods in grouping order.
func (s *Store) Packages() []shippingoptions.PackageOptions {
	out := make([]shippingoptions.PackageOptions, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.options[id])
	}
	return out
}

// Options returns the package and methods for packageID.
func (s *Store) Options(packageID string) (shippingoptions.PackageOptions, bool) {
	entry, ok := s.options[packageID]
	return entry, ok
}

// SelectedMethod returns the option matching the package's selected method id.
func (s *Store) SelectedMethod(packageID string) (shippingoptions.MethodOption, bool) {
	sel, ok := s.selections[packageID]
	if !ok || sel.MethodID == nil {
		return shippingoptions.MethodOption{}, false
	}
	return s.options[packageID].Method(*sel.MethodID)
}

func (s *Store) lookup(packageID string) (*PackageSelection, shippingoptions.PackageOptions, error) {
	entry, ok := s.options[packageID]
	if !ok {
		return nil, shippingoptions.PackageOptions{}, ErrStalePackage(packageID)
	}
	return s.selections[packageID], entry, nil
}

func (s *Store) isLocker(sel *PackageSelection, entry shippingoptions.PackageOptions) bool {
	if sel.MethodID == nil {
		return false
	}
	method, ok := entry.Method(*sel.MethodID)
	return ok && method.IsLocker()
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
