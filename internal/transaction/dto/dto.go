package dto

import (
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

type TransactionFilters struct {
	StartDate *time.Time
	EndDate   *time.Time
	UserID    int64
	Status    model.TransactionStatus
	Page      int
	PageSize  int
}

func (f *TransactionFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 50
	}
}
