package repo

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type row struct {
	ID     string `gorm:"primaryKey"`
	Active bool
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&row{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestBaseDBBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}
	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseListAppliesScopes(t *testing.T) {
	db := newTestDB(t)
	db.Create(&[]row{{ID: "a", Active: true}, {ID: "b", Active: false}, {ID: "c", Active: true}})
	base := NewBase(db)

	var rows []row
	activeOnly := func(q *gorm.DB) *gorm.DB { return q.Where("active = ?", true) }
	ordered := func(q *gorm.DB) *gorm.DB { return q.Order("id DESC") }
	if err := base.List(context.Background(), &rows, "list rows", activeOnly, ordered); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "c" || rows[1].ID != "a" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}
