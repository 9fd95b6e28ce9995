package packages

import "strings"

// Warehouse names used by the default directory.
const (
	WarehouseRzeszow = "Rzeszów"
	WarehouseOutlet  = "Outlet"
)

// Directory is the explicit warehouse configuration used to normalize grouping keys.
// An empty Known set accepts every non-empty warehouse id.
type Directory struct {
	Known   map[string]struct{}
	Aliases map[string]string
}

// DefaultDirectory merges the outlet stock into the Rzeszów warehouse.
func DefaultDirectory() Directory {
	return NewDirectory(
		[]string{WarehouseRzeszow},
		map[string]string{WarehouseOutlet: WarehouseRzeszow},
	)
}

// NewDirectory builds a directory from known warehouse ids and alias -> target pairs.
// Alias targets are registered as known.
func NewDirectory(known []string, aliases map[string]string) Directory {
	dir := Directory{
		Known:   make(map[string]struct{}, len(known)+len(aliases)),
		Aliases: make(map[string]string, len(aliases)),
	}
	for _, id := range known {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			dir.Known[trimmed] = struct{}{}
		}
	}
	for alias, target := range aliases {
		alias = strings.TrimSpace(alias)
		target = strings.TrimSpace(target)
		if alias == "" || target == "" {
			continue
		}
		dir.Aliases[alias] = target
		dir.Known[target] = struct{}{}
	}
	return dir
}

// Normalize maps a raw warehouse id to its grouping key.
func (d Directory) Normalize(warehouseID *string) string {
	if warehouseID == nil {
		return DefaultPackageKey
	}
	key := strings.TrimSpace(*warehouseID)
	if key == "" {
		return DefaultPackageKey
	}
	if target, ok := d.Aliases[key]; ok {
		key = target
	}
	if len(d.Known) == 0 {
		return key
	}
	if _, ok := d.Known[key]; !ok {
		return DefaultPackageKey
	}
	return key
}
