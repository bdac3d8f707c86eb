// Package repository is the write side of persistence: conditional updates
// and inserts over raw SQL, classified into infra.RepositoryError kinds.
package repository

import "courtbook/internal/infra/db"

// Queryer is satisfied by both *pgxpool.Pool and pgx.Tx, so callers decide
// whether a method joins a transaction.
type Queryer = db.DBTX
