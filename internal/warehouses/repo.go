// Package warehouses loads the warehouse registry that drives package grouping.
package warehouses

import (
	"context"

	"github.com/angelmondragon/checkout-shipping/internal/packages"
	"github.com/angelmondragon/checkout-shipping/internal/repo"
	"gorm.io/gorm"
)

// Repository reads warehouses from the database.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListActive returns active warehouses ordered by id.
func (r *Repository) ListActive(ctx context.Context) ([]Warehouse, error) {
	var rows []Warehouse
	if err := r.List(ctx, &rows, "list warehouses", activeOnly, orderByID); err != nil {
		return nil, err
	}
	return rows, nil
}

func activeOnly(q *gorm.DB) *gorm.DB {
	return q.Where("active = ?", true)
}

func orderByID(q *gorm.DB) *gorm.DB {
	return q.Order("id ASC")
}

// Directory builds the grouping directory from active warehouses. Aliases
// pointing at inactive or unknown targets are ignored. An empty registry
// yields the built-in default directory.
func (r *Repository) Directory(ctx context.Context) (packages.Directory, error) {
	rows, err := r.ListActive(ctx)
	if err != nil {
		return packages.Directory{}, err
	}
	return BuildDirectory(rows), nil
}

// BuildDirectory converts registry rows into a grouping directory.
func BuildDirectory(rows []Warehouse) packages.Directory {
	if len(rows) == 0 {
		return packages.DefaultDirectory()
	}
	active := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.AliasOf == nil {
			active[row.ID] = struct{}{}
		}
	}

	known := make([]string, 0, len(active))
	aliases := map[string]string{}
	for _, row := range rows {
		if row.AliasOf == nil {
			known = append(known, row.ID)
			continue
		}
		if _, ok := active[*row.AliasOf]; ok {
			aliases[row.ID] = *row.AliasOf
		}
	}
	return packages.NewDirectory(known, aliases)
}
