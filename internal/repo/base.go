package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/checkout-shipping/pkg/db"
)

// Scope narrows a query.
type Scope func(*gorm.DB) *gorm.DB

// Base is embedded by gorm-backed repositories.
type Base struct {
	db *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{db: conn}
}

// DB returns the connection bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// List loads every row matching scopes into dest. Errors are mapped through
// db.WrapError with op as the message.
func (b Base) List(ctx context.Context, dest any, op string, scopes ...Scope) error {
	query := b.DB(ctx)
	for _, scope := range scopes {
		query = scope(query)
	}
	return db.WrapError(query.Find(dest).Error, op)
}
