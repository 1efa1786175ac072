package inventory

import (
	"context"

	"github.com/cafepos/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to inventory repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories within a
// transaction. All repositories returned share the same underlying database
// transaction, which is what makes a multi-batch deduction all-or-nothing.
type TransactionalRepositories interface {
	// BatchRepo returns the batch repository scoped to the current transaction
	BatchRepo() inventory.BatchRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests or stores without transaction support.
type NoOpTransactionScope struct {
	batchRepo inventory.BatchRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repository.
func NewNoOpTransactionScope(batchRepo inventory.BatchRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{batchRepo: batchRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BatchRepo returns the batch repository.
func (s *NoOpTransactionScope) BatchRepo() inventory.BatchRepository {
	return s.batchRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
