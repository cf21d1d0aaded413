// Package apperr is the error taxonomy shared by the ledgers and their callers.
// Callers match with errors.Is against the sentinels, or errors.As for details.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrInvalidDiscount      = fmt.Errorf("%w: invalid discount", ErrValidation)
	ErrInvalidPromotionRule = fmt.Errorf("%w: invalid promotion rule", ErrValidation)
	ErrInvalidRequest       = fmt.Errorf("%w: invalid request", ErrValidation)

	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrNegativeStock          = errors.New("negative stock")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrAuthentication         = errors.New("authentication failed")
	ErrTransactionNotVoidable = errors.New("transaction not voidable")
	ErrDuplicateCode          = errors.New("duplicate code")
	ErrNotFound               = errors.New("not found")
)

type InsufficientStockError struct {
	ProductCode string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductCode, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type NegativeStockError struct {
	ProductCode string
	Current     int
	Delta       int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("stock of product %s would become negative: current %d, change %d",
		e.ProductCode, e.Current, e.Delta)
}

func (e *NegativeStockError) Is(target error) bool { return target == ErrNegativeStock }

type PermissionDeniedError struct {
	Role   string
	Action string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: role %q may not %s", e.Role, e.Action)
}

func (e *PermissionDeniedError) Is(target error) bool { return target == ErrPermissionDenied }

type TransactionNotVoidableError struct {
	Code   string
	Status string
}

func (e *TransactionNotVoidableError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("transaction %s cannot be voided: not found", e.Code)
	}
	return fmt.Sprintf("transaction %s cannot be voided: status is %s", e.Code, e.Status)
}

func (e *TransactionNotVoidableError) Is(target error) bool {
	return target == ErrTransactionNotVoidable
}

// Invalid wraps ErrInvalidRequest with a formatted reason.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound naming the missing entity.
func NotFound(entity, key string) error {
	return fmt.Errorf("%s %q: %w", entity, key, ErrNotFound)
}
