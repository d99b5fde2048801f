package domain

import (
	"errors"
	"strings"
)

var (
	// ErrValidation — общий признак ошибки валидации (используется с errors.Is).
	ErrValidation = errors.New("validation failed")
	// ErrCannotCheckoutEmpty — попытка убрать последнюю позицию из сессии оформления.
	ErrCannotCheckoutEmpty = errors.New("cannot checkout empty order")
	// ErrAlreadySubmitting — повторный submit, пока предыдущий платёж ещё выполняется.
	ErrAlreadySubmitting = errors.New("checkout is already submitting")
	// ErrSessionCompleted — сессия уже завершена и не может быть использована повторно.
	ErrSessionCompleted = errors.New("checkout session already completed")
	// ErrSessionNotEditable — изменение сессии вне статуса editing.
	ErrSessionNotEditable = errors.New("checkout session is not editable")
	// ErrSessionNotFound — сессия оформления не найдена (истекла или отменена).
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrLineItemNotFound — строка корзины не найдена.
	ErrLineItemNotFound = errors.New("line item not found")
	// ErrListingNotFound — объявление не найдено.
	ErrListingNotFound = errors.New("listing not found")
	// ErrListingTitleRequired — у объявления нет названия.
	ErrListingTitleRequired = errors.New("listing title is required")
	// ErrListingAuthorRequired — у объявления нет автора.
	ErrListingAuthorRequired = errors.New("listing author is required")
	// ErrListingPriceNegative — отрицательная цена в объявлении.
	ErrListingPriceNegative = errors.New("listing price must be non-negative")
	// ErrCatalogItemNotFound — каталог не знает такого товара.
	ErrCatalogItemNotFound = errors.New("catalog item not found")
	// ErrCatalogUnavailable — каталог недоступен, запрос можно повторить.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrPaymentDeclined — платёж отклонён провайдером (бизнес-ошибка).
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrPaymentTemporary — временная ошибка платёжного провайдера.
	ErrPaymentTemporary = errors.New("payment temporary error")
	// ErrPaymentTimeout — платёж не завершился за отведённое время.
	ErrPaymentTimeout = errors.New("payment timed out")
	// ErrCircuitOpen — circuit breaker не пропускает вызовы шлюза.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrOutboxMessageNotFound — сообщение outbox не найдено.
	ErrOutboxMessageNotFound = errors.New("outbox message not found")
)

// ValidationReason — машиночитаемый код причины отказа.
type ValidationReason string

const (
	ReasonEmailMissing         ValidationReason = "email-missing"
	ReasonEmailInvalid         ValidationReason = "email-invalid"
	ReasonNoItems              ValidationReason = "no-items"
	ReasonPaymentMethodInvalid ValidationReason = "payment-method-invalid"
)

// ValidationError перечисляет все поля, не прошедшие проверку.
type ValidationError struct {
	Reasons []ValidationReason
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Reasons))
	for i, r := range e.Reasons {
		parts[i] = string(r)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Is позволяет сравнивать через errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Has сообщает, содержит ли ошибка указанную причину.
func (e *ValidationError) Has(reason ValidationReason) bool {
	for _, r := range e.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

// IsValidation проверяет, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// ValidationReasons достаёт причины из ошибки, если это ValidationError.
func ValidationReasons(err error) []ValidationReason {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reasons
	}
	return nil
}

// IsPaymentRetryable сообщает, стоит ли повторять списание.
// Отказ провайдера повторять нельзя, временные ошибки и таймауты — можно.
func IsPaymentRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrPaymentDeclined) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	return errors.Is(err, ErrPaymentTemporary) || errors.Is(err, ErrPaymentTimeout)
}
