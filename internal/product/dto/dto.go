package dto

type ProductFilters struct {
	Query           string
	Category        string
	IncludeInactive bool
	LowStockOnly    bool
	Page            int
	PageSize        int
}

func (f *ProductFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 50
	}
}
