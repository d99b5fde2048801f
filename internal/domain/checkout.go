package domain

import (
	"regexp"
	"strings"
	"time"
)

// CheckoutStatus описывает жизненный цикл сессии оформления заказа.
type CheckoutStatus string

const (
	// CheckoutStatusEditing — покупатель заполняет данные, можно менять состав.
	CheckoutStatusEditing CheckoutStatus = "editing"
	// CheckoutStatusSubmitting — платёж отправлен, изменения запрещены.
	CheckoutStatusSubmitting CheckoutStatus = "submitting"
	// CheckoutStatusCompleted — заказ подтверждён, сессия больше не используется.
	CheckoutStatusCompleted CheckoutStatus = "completed"
)

// PaymentMethod — способ оплаты, выбранный покупателем.
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodWalletVodafone PaymentMethod = "wallet-vodafone"
	PaymentMethodWalletInstapay PaymentMethod = "wallet-instapay"
)

// Valid проверяет, что способ оплаты поддерживается.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodWalletVodafone, PaymentMethodWalletInstapay:
		return true
	default:
		return false
	}
}

// BuyerInfo — контактные данные покупателя. Name необязателен.
type BuyerInfo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmailValid проверяет только форму адреса, не его доставляемость.
func IsEmailValid(email string) bool {
	return emailPattern.MatchString(email)
}

// Validate возвращает причины, по которым данные покупателя не принимаются.
func (b BuyerInfo) Validate() []ValidationReason {
	email := strings.TrimSpace(b.Email)
	switch {
	case email == "":
		return []ValidationReason{ReasonEmailMissing}
	case !IsEmailValid(email):
		return []ValidationReason{ReasonEmailInvalid}
	}
	return nil
}

// OrderConfirmation — запись об успешно оформленном заказе. Создаётся один раз.
type OrderConfirmation struct {
	OrderID       string        `json:"orderId"`
	Items         []LineItem    `json:"items"`
	Buyer         BuyerInfo     `json:"buyer"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Total         float64       `json:"total"`
	PaymentRef    string        `json:"paymentRef,omitempty"`
	SubmittedAt   time.Time     `json:"submittedAt"`
}

// ChargeRequest — запрос на списание к платёжному шлюзу.
type ChargeRequest struct {
	Reference string
	Amount    float64
	Method    PaymentMethod
	Buyer     BuyerInfo
}

// ChargeReceipt — ответ платёжного шлюза при успешном списании.
type ChargeReceipt struct {
	// ExternalID может быть пустым, если провайдер не возвращает идентификатор.
	ExternalID string
	ChargedAt  time.Time
}
