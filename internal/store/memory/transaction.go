package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction/dto"
)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) NextSequence(ctx context.Context, day time.Time) (int, error) {
	next := 0
	err := r.db.write(ctx, func(t *tables) error {
		key := day.Format("2006-01-02")
		t.counters[key]++
		next = t.counters[key]
		return nil
	})
	return next, err
}

func (r *TransactionRepository) Create(ctx context.Context, trx *model.Transaction) error {
	return r.db.write(ctx, func(t *tables) error {
		for _, existing := range t.transactions {
			if existing.Code == trx.Code {
				return fmt.Errorf("transaction code %q: %w", trx.Code, apperr.ErrDuplicateCode)
			}
			if trx.IdempotencyKey != nil && existing.IdempotencyKey != nil &&
				*existing.IdempotencyKey == *trx.IdempotencyKey {
				return fmt.Errorf("idempotency key %q: %w", *trx.IdempotencyKey, apperr.ErrDuplicateCode)
			}
		}
		if _, ok := t.users[trx.UserID]; !ok {
			return apperr.NotFound("user", fmt.Sprint(trx.UserID))
		}

		t.trxSeq++
		trx.ID = t.trxSeq
		for i := range trx.Items {
			t.itemSeq++
			trx.Items[i].ID = t.itemSeq
			trx.Items[i].TransactionID = trx.ID
		}
		t.transactions[trx.ID] = cloneTransaction(*trx)
		return nil
	})
}

func (r *TransactionRepository) find(read func(func(*tables) error) error, match func(model.Transaction) bool, key string) (*model.Transaction, error) {
	var out *model.Transaction
	err := read(func(t *tables) error {
		for _, trx := range t.transactions {
			if match(trx) {
				c := cloneTransaction(trx)
				if u, ok := t.users[c.UserID]; ok {
					c.CashierName = u.FullName
				}
				out = &c
				return nil
			}
		}
		return apperr.NotFound("transaction", key)
	})
	return out, err
}

func (r *TransactionRepository) FindByCode(ctx context.Context, code string) (*model.Transaction, error) {
	return r.find(r.db.read, func(trx model.Transaction) bool { return trx.Code == code }, code)
}

func (r *TransactionRepository) FindByCodeForUpdate(ctx context.Context, code string) (*model.Transaction, error) {
	return r.FindByCode(ctx, code)
}

func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.Transaction, error) {
	read := func(fn func(*tables) error) error { return r.db.readCommitted(ctx, fn) }
	return r.find(read, func(trx model.Transaction) bool {
		return trx.IdempotencyKey != nil && *trx.IdempotencyKey == key
	}, key)
}

func (r *TransactionRepository) FindAll(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error) {
	f := dto.TransactionFilters{}
	if filters != nil {
		f = *filters
	}

	var all []model.Transaction
	_ = r.db.read(func(t *tables) error {
		for _, trx := range t.transactions {
			if f.UserID != 0 && trx.UserID != f.UserID {
				continue
			}
			if f.Status != "" && trx.Status != f.Status {
				continue
			}
			if f.StartDate != nil && trx.CreatedAt.Before(*f.StartDate) {
				continue
			}
			if f.EndDate != nil && !trx.CreatedAt.Before(*f.EndDate) {
				continue
			}
			c := cloneTransaction(trx)
			if u, ok := t.users[c.UserID]; ok {
				c.CashierName = u.FullName
			}
			all = append(all, c)
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	start, end := paginate(len(all), f.Page, f.PageSize)
	return all[start:end], len(all), nil
}

func (r *TransactionRepository) MarkVoided(ctx context.Context, id int64, at time.Time) (bool, error) {
	flipped := false
	err := r.db.write(ctx, func(t *tables) error {
		trx, ok := t.transactions[id]
		if !ok || trx.Status != model.TransactionCompleted {
			return nil
		}
		trx.Status = model.TransactionVoided
		trx.VoidedAt = &at
		t.transactions[id] = trx
		flipped = true
		return nil
	})
	return flipped, err
}
