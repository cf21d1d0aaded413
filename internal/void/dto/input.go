package dto

type VoidInput struct {
	TransactionCode string
	Reason          string
}
