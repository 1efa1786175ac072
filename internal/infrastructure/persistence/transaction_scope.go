package persistence

import (
	"context"

	appinv "github.com/cafepos/backend/internal/application/inventory"
	appret "github.com/cafepos/backend/internal/application/returns"
	"github.com/cafepos/backend/internal/domain/inventory"
	"github.com/cafepos/backend/internal/domain/returns"
	"gorm.io/gorm"
)

// GormTransactionScope implements the batch store's TransactionScope using
// GORM transactions. It provides atomic execution of multiple repository
// operations; a multi-batch FIFO deduction either lands whole or not at all.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// GormReturnsTransactionScope implements the returns processor's
// TransactionScope. A processed return writes batch deductions and the
// return record in the same transaction; an undo deletes the record and
// recreates batches likewise.
type GormReturnsTransactionScope struct {
	db *gorm.DB
}

// NewGormReturnsTransactionScope creates a new GormReturnsTransactionScope.
func NewGormReturnsTransactionScope(db *gorm.DB) *GormReturnsTransactionScope {
	return &GormReturnsTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormReturnsTransactionScope) Execute(ctx context.Context, fn func(repos appret.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a
// transaction. Both scope flavors hand out the same struct; the interfaces
// decide which repositories a caller can see.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// BatchRepo returns the batch repository scoped to the current transaction.
func (r *gormTransactionalRepositories) BatchRepo() inventory.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

// ReturnRepo returns the return repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ReturnRepo() returns.ReturnRepository {
	return NewGormReturnRepository(r.tx)
}

// Ensure the scopes implement their application ports
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)
var _ appret.TransactionScope = (*GormReturnsTransactionScope)(nil)

// Ensure gormTransactionalRepositories serves both repository views
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ appret.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
