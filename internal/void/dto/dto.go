package dto

import "time"

type VoidFilters struct {
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

func (f *VoidFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 50
	}
}
