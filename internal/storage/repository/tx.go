package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// txFunc is a function that runs within a transaction.
type txFunc func(*sql.Tx) error

// withTransaction runs fn in a transaction. It commits when fn returns nil
// and rolls back on error or panic; a panic is re-raised after rollback.
func withTransaction(ctx context.Context, db *sql.DB, fn txFunc) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
			}
		} else {
			err = tx.Commit()
			if err != nil {
				err = fmt.Errorf("failed to commit transaction: %w", err)
			}
		}
	}()

	return fn(tx)
}
