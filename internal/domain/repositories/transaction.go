package repositories

import "context"

// TxFn is the unit of work passed to ExecTx
type TxFn func(ctx context.Context) error

// TransactionManager groups repository calls atomically. Repositories invoked
// with the ctx handed to fn share one transaction; any error from fn rolls
// the whole unit back.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
