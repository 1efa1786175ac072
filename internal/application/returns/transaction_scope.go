package returns

import (
	"context"

	"github.com/cafepos/backend/internal/domain/inventory"
	"github.com/cafepos/backend/internal/domain/returns"
)

// TransactionScope provides transactional access to the repositories a
// return spans. Committing a return writes the return record, its line
// items and the batch deletions in one database transaction; undo writes
// the recreated batches and the record deletion the same way.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories within a
// transaction. Both repositories share the same underlying transaction.
type TransactionalRepositories interface {
	// BatchRepo returns the batch repository scoped to the current transaction
	BatchRepo() inventory.BatchRepository
	// ReturnRepo returns the return repository scoped to the current transaction
	ReturnRepo() returns.ReturnRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests or stores without transaction support.
type NoOpTransactionScope struct {
	batchRepo  inventory.BatchRepository
	returnRepo returns.ReturnRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(batchRepo inventory.BatchRepository, returnRepo returns.ReturnRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{batchRepo: batchRepo, returnRepo: returnRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BatchRepo returns the batch repository.
func (s *NoOpTransactionScope) BatchRepo() inventory.BatchRepository {
	return s.batchRepo
}

// ReturnRepo returns the return repository.
func (s *NoOpTransactionScope) ReturnRepo() returns.ReturnRepository {
	return s.returnRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
