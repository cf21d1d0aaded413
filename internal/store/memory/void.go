package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/void/dto"
)

type VoidRepository struct {
	db *DB
}

func NewVoidRepository(db *DB) *VoidRepository {
	return &VoidRepository{db: db}
}

func (r *VoidRepository) Create(ctx context.Context, v *model.VoidRecord) error {
	return r.db.write(ctx, func(t *tables) error {
		for _, existing := range t.voids {
			if existing.OriginalTransactionID == v.OriginalTransactionID {
				return fmt.Errorf("void of transaction %d: %w", v.OriginalTransactionID, apperr.ErrDuplicateCode)
			}
		}
		if _, ok := t.transactions[v.OriginalTransactionID]; !ok {
			return apperr.NotFound("transaction", fmt.Sprint(v.OriginalTransactionID))
		}
		t.voidSeq++
		v.ID = t.voidSeq
		t.voids = append(t.voids, *v)
		return nil
	})
}

func (r *VoidRepository) FindAll(ctx context.Context, filters *dto.VoidFilters) ([]model.VoidRecord, int, error) {
	f := dto.VoidFilters{}
	if filters != nil {
		f = *filters
	}

	var all []model.VoidRecord
	_ = r.db.read(func(t *tables) error {
		for _, v := range t.voids {
			if f.StartDate != nil && v.CreatedAt.Before(*f.StartDate) {
				continue
			}
			if f.EndDate != nil && !v.CreatedAt.Before(*f.EndDate) {
				continue
			}
			if trx, ok := t.transactions[v.OriginalTransactionID]; ok {
				v.TransactionCode = trx.Code
			}
			if u, ok := t.users[v.VoidedBy]; ok {
				v.VoidedByName = u.FullName
			}
			all = append(all, v)
		}
		return nil
	})
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	start, end := paginate(len(all), f.Page, f.PageSize)
	return all[start:end], len(all), nil
}
