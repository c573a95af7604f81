package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// ReadSnapshot runs fn inside one read-only transaction so every query fn
// issues sees the same committed state. Postgres gets REPEATABLE READ; SQLite
// transactions are already serializable.
func ReadSnapshot(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db.Dialector.Name() == "postgres" {
		return db.WithContext(ctx).Transaction(fn, &sql.TxOptions{
			Isolation: sql.LevelRepeatableRead,
			ReadOnly:  true,
		})
	}
	return db.WithContext(ctx).Transaction(fn)
}
