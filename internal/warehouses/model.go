package warehouses

import "time"

// Warehouse is a row of the warehouses registry. A row with AliasOf set ships
// its stock from the target warehouse.
type Warehouse struct {
	ID          string    `gorm:"column:id;primaryKey"`
	DisplayName string    `gorm:"column:display_name;not null"`
	AliasOf     *string   `gorm:"column:alias_of"`
	Active      bool      `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Warehouse) TableName() string { return "warehouses" }
