// Package memory implements every repository over process memory. It backs
// the tests and STORAGE_DRIVER=memory.
//
// Writers are serialized by a single transaction mutex; a failed WithinTx
// restores the snapshot taken when it began. Plain reads outside a
// transaction do not wait for writers and may observe uncommitted rows;
// lookups that gate a write use readCommitted instead.
package memory

import (
	"context"
	"sync"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

type txKey struct{}

type DB struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	t    tables
}

type tables struct {
	users   map[int64]model.User
	userSeq int64

	products   map[int64]model.Product
	productSeq int64

	transactions map[int64]model.Transaction
	trxSeq       int64
	itemSeq      int64
	counters     map[string]int

	voids   []model.VoidRecord
	voidSeq int64

	logs   []model.InventoryLog
	logSeq int64
}

func NewDB() *DB {
	return &DB{t: tables{
		users:        make(map[int64]model.User),
		products:     make(map[int64]model.Product),
		transactions: make(map[int64]model.Transaction),
		counters:     make(map[string]int),
	}}
}

func (t *tables) clone() tables {
	c := *t
	c.users = make(map[int64]model.User, len(t.users))
	for k, v := range t.users {
		c.users[k] = v
	}
	c.products = make(map[int64]model.Product, len(t.products))
	for k, v := range t.products {
		c.products[k] = v
	}
	c.transactions = make(map[int64]model.Transaction, len(t.transactions))
	for k, v := range t.transactions {
		c.transactions[k] = cloneTransaction(v)
	}
	c.counters = make(map[string]int, len(t.counters))
	for k, v := range t.counters {
		c.counters[k] = v
	}
	c.voids = append([]model.VoidRecord(nil), t.voids...)
	c.logs = append([]model.InventoryLog(nil), t.logs...)
	return c
}

func cloneTransaction(trx model.Transaction) model.Transaction {
	trx.Items = append([]model.TransactionItem(nil), trx.Items...)
	if trx.VoidedAt != nil {
		at := *trx.VoidedAt
		trx.VoidedAt = &at
	}
	if trx.IdempotencyKey != nil {
		key := *trx.IdempotencyKey
		trx.IdempotencyKey = &key
	}
	return trx
}

func (db *DB) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*DB)
	return ok && owner == db
}

// WithinTx implements store.Transactor.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.inTx(ctx) {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	snapshot := db.t.clone()
	db.mu.RUnlock()

	committed := false
	defer func() {
		if !committed {
			db.mu.Lock()
			db.t = snapshot
			db.mu.Unlock()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		return err
	}
	committed = true
	return nil
}

// write runs fn with exclusive access. Outside a transaction it also takes the
// transaction mutex so a concurrent rollback cannot erase it.
func (db *DB) write(ctx context.Context, fn func(t *tables) error) error {
	if !db.inTx(ctx) {
		db.txMu.Lock()
		defer db.txMu.Unlock()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(&db.t)
}

func (db *DB) read(fn func(t *tables) error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(&db.t)
}

// readCommitted is read that first waits for any open transaction, so the
// caller never acts on a row a rollback could still remove. Inside a
// transaction it sees that transaction's own writes.
func (db *DB) readCommitted(ctx context.Context, fn func(t *tables) error) error {
	if !db.inTx(ctx) {
		db.txMu.Lock()
		defer db.txMu.Unlock()
	}
	return db.read(fn)
}

func paginate(total, page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return 0, total
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}
