// internal/app/system/txn/txn.go
//
// Package txn runs multi-document writes atomically where MongoDB supports
// transactions, and falls back to sequential writes with compensating
// cleanup where it does not (standalone servers, some DocumentDB versions).
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// compensateTimeout bounds the cleanup run after a failed fallback write.
const compensateTimeout = 10 * time.Second

// Tx is handed to the function passed to Run. Writes must use Context() so
// they join the transaction when there is one.
type Tx struct {
	ctx   context.Context
	inTxn bool
	undo  []func(context.Context) error
}

// Context returns the context that writes inside the unit of work must use.
func (t *Tx) Context() context.Context { return t.ctx }

// InTransaction reports whether the writes run inside a server transaction.
func (t *Tx) InTransaction() bool { return t.inTxn }

// OnRollback registers a compensating action. It runs only in fallback mode,
// in reverse registration order, when the unit of work fails.
func (t *Tx) OnRollback(fn func(ctx context.Context) error) {
	t.undo = append(t.undo, fn)
}

// Runner runs units of work against one client. The first "not supported"
// answer from the server is remembered and later runs go straight to fallback.
type Runner struct {
	client      *mongo.Client
	log         *zap.Logger
	unsupported atomic.Bool
}

// New returns a Runner for client. A nil client always uses fallback mode.
func New(client *mongo.Client, log *zap.Logger) *Runner {
	r := &Runner{client: client, log: log}
	if client == nil {
		r.unsupported.Store(true)
	}
	return r
}

// Run executes fn atomically. fn may run more than once in transaction mode
// (the driver retries transient errors), so it must not have side effects
// outside the database.
func (r *Runner) Run(ctx context.Context, fn func(tx *Tx) error) error {
	if !r.unsupported.Load() {
		err := r.runTxn(ctx, fn)
		if err == nil || !IsNotSupported(err) {
			return err
		}
		r.unsupported.Store(true)
		r.log.Info("transactions not supported; using compensating writes", zap.Error(err))
	}
	return r.runCompensated(ctx, fn)
}

func (r *Runner) runTxn(ctx context.Context, fn func(tx *Tx) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(&Tx{ctx: sc, inTxn: true})
	})
	return err
}

func (r *Runner) runCompensated(ctx context.Context, fn func(tx *Tx) error) error {
	tx := &Tx{ctx: ctx}
	err := fn(tx)
	if err == nil {
		return nil
	}

	// Cleanup must run even when the request context is already done.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		if uerr := tx.undo[i](cctx); uerr != nil {
			r.log.Error("compensating write failed", zap.Int("step", i), zap.Error(uerr))
		}
	}
	return err
}

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: transactions need a replica set member or mongos
			51,  // legacy IllegalOperation
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	// Some servers only describe the condition in the message. Require two
	// signals so an ordinary failed write inside a transaction is not misread.
	msg := strings.ToLower(err.Error())
	signals := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			signals++
		}
	}
	return signals >= 2
}
