package orm

import (
	"context"
	"errors"
	"fmt"
)

type (
	// TransactionBlock runs statements on the connection given to
	// Transaction.
	TransactionBlock func(context.Context) error
)

// MustTransaction is like Transaction but panics if the transaction fails.
func MustTransaction(ctx context.Context, conn Connection, block TransactionBlock) {
	if err := Transaction(ctx, conn, block); err != nil {
		panic(err)
	}
}

// Transaction begins a transaction on conn and runs block. If block returns
// an error or panics, the transaction is rolled back and the error (or the
// panic as an error) is returned as is; a failed rollback does not replace
// it. Otherwise the transaction is committed.
//
//	err := orm.Transaction(ctx, conn, func(ctx context.Context) error {
//		if _, err := users.Create(ctx, conn, alice); err != nil {
//			return err
//		}
//		_, err := users.Create(ctx, conn, bob)
//		return err
//	})
func Transaction(ctx context.Context, conn Connection, block TransactionBlock) (err error) {
	if conn == nil {
		return ErrNoConnection
	}
	if err = conn.BeginTransaction(ctx); err != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			conn.RollbackTransaction(ctx)
			if rerr, ok := r.(error); ok {
				err = rerr
			} else {
				err = errors.New(fmt.Sprint(r))
			}
		} else if err != nil {
			conn.RollbackTransaction(ctx)
		} else {
			err = conn.CommitTransaction(ctx)
		}
	}()
	err = block(ctx)
	return
}
