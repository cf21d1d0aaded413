package dto

import (
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

type LogFilters struct {
	ProductCode string
	Action      model.StockAction
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
	PageSize    int
}

func (f *LogFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 1000 {
		f.PageSize = 100
	}
}

// StockVerification compares the cached stock with the replayed log.
type StockVerification struct {
	ProductCode string
	Stock       int
	LoggedTotal int
	Entries     int
	Consistent  bool
}
