// Package checkout реализует сессию оформления заказа: editing → submitting → completed.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
	"github.com/vladislavdragonenkov/bookcart/internal/metrics"
)

// DefaultSubmitTimeout ограничивает платёжный шаг, если Deps.Timeout не задан.
const DefaultSubmitTimeout = 30 * time.Second

// CartClearer очищает корзину после успешной оплаты.
type CartClearer interface {
	Clear()
}

// CartClearerFunc адаптирует функцию к CartClearer.
type CartClearerFunc func()

// Clear вызывает f.
func (f CartClearerFunc) Clear() { f() }

// Deps — зависимости сессии.
type Deps struct {
	Gateway domain.PaymentGateway
	// Cart может быть nil: например, для покупки в один клик корзина не трогается.
	Cart      CartClearer
	Publisher domain.ConfirmationPublisher
	Metrics   *metrics.CheckoutMetrics
	Logger    *log.Entry
	Timeout   time.Duration
	Now       func() time.Time
	NewID     func() string
}

func (d *Deps) defaults() {
	if d.Logger == nil {
		d.Logger = log.WithField("component", "checkout")
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultSubmitTimeout
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
}

// Session — сессия оформления заказа. Работает с копией строк корзины и
// не зависит от дальнейших изменений корзины. Методы безопасны для конкурентного вызова.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	items     []domain.LineItem
	buyer     domain.BuyerInfo
	method    domain.PaymentMethod
	status    domain.CheckoutStatus
	lastErr   error
	confirmed *domain.OrderConfirmation
	discarded bool

	deps   Deps
	logger *log.Entry
}

// View — снимок состояния сессии для отображения.
type View struct {
	ID            string                    `json:"id"`
	Status        domain.CheckoutStatus     `json:"status"`
	Items         []domain.LineItem         `json:"items"`
	Buyer         domain.BuyerInfo          `json:"buyer"`
	PaymentMethod domain.PaymentMethod      `json:"paymentMethod"`
	Total         float64                   `json:"total"`
	Count         int                       `json:"count"`
	LastError     string                    `json:"lastError,omitempty"`
	Confirmation  *domain.OrderConfirmation `json:"confirmation,omitempty"`
	CreatedAt     time.Time                 `json:"createdAt"`
}

// NewSession открывает сессию по снимку корзины.
func NewSession(items []domain.LineItem, deps Deps) *Session {
	deps.defaults()
	snapshot := domain.CloneLineItems(items)
	if snapshot == nil {
		snapshot = []domain.LineItem{}
	}

	s := &Session{
		id:        deps.NewID(),
		createdAt: deps.Now().UTC(),
		items:     snapshot,
		method:    domain.PaymentMethodCard,
		status:    domain.CheckoutStatusEditing,
		deps:      deps,
	}
	s.logger = deps.Logger.WithField("session_id", s.id)
	if deps.Metrics != nil {
		deps.Metrics.RecordSessionOpened()
	}
	return s
}

// NewSingleItemSession открывает сессию «купить сейчас» для одной позиции.
func NewSingleItemSession(item domain.CatalogItem, qty int, deps Deps) *Session {
	if qty < 1 {
		qty = 1
	}
	return NewSession([]domain.LineItem{domain.NewLineItem(item, qty)}, deps)
}

// ID возвращает идентификатор сессии.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt возвращает время открытия сессии.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Status возвращает текущий статус.
func (s *Session) Status() domain.CheckoutStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Items возвращает копию строк сессии.
func (s *Session) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneLineItems(s.items)
}

// LastError возвращает ошибку последней неудачной попытки оплаты.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Confirmation возвращает подтверждение заказа, если сессия завершена.
func (s *Session) Confirmation() (domain.OrderConfirmation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirmed == nil {
		return domain.OrderConfirmation{}, false
	}
	return *s.confirmed, true
}

// View возвращает снимок состояния.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:            s.id,
		Status:        s.status,
		Items:         domain.CloneLineItems(s.items),
		Buyer:         s.buyer,
		PaymentMethod: s.method,
		Total:         domain.CartTotal(s.items),
		Count:         domain.ItemCount(s.items),
		CreatedAt:     s.createdAt,
	}
	if s.lastErr != nil {
		v.LastError = s.lastErr.Error()
	}
	if s.confirmed != nil {
		c := *s.confirmed
		v.Confirmation = &c
	}
	return v
}

// SetBuyer заменяет контактные данные покупателя.
func (s *Session) SetBuyer(buyer domain.BuyerInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureEditing(); err != nil {
		return err
	}
	s.buyer = domain.BuyerInfo{
		Email: strings.TrimSpace(buyer.Email),
		Name:  strings.TrimSpace(buyer.Name),
	}
	return nil
}

// SetPaymentMethod выбирает способ оплаты. Неизвестный способ отклоняется.
func (s *Session) SetPaymentMethod(method domain.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureEditing(); err != nil {
		return err
	}
	if !method.Valid() {
		return &domain.ValidationError{Reasons: []domain.ValidationReason{domain.ReasonPaymentMethodInvalid}}
	}
	s.method = method
	return nil
}

// RemoveItem убирает строку по CatalogID. Удаление последней строки запрещено:
// возвращается ErrCannotCheckoutEmpty, состав сессии не меняется.
func (s *Session) RemoveItem(catalogID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureEditing(); err != nil {
		return err
	}

	idx := -1
	for i, line := range s.items {
		if line.CatalogID == catalogID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	if len(s.items) == 1 {
		return domain.ErrCannotCheckoutEmpty
	}

	next := make([]domain.LineItem, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	s.items = next
	return nil
}

// Validate проверяет готовность к оплате и возвращает *domain.ValidationError со всеми причинами.
func (s *Session) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *Session) validateLocked() error {
	reasons := s.buyer.Validate()
	if len(s.items) == 0 {
		reasons = append(reasons, domain.ReasonNoItems)
	}
	if !s.method.Valid() {
		reasons = append(reasons, domain.ReasonPaymentMethodInvalid)
	}
	if len(reasons) == 0 {
		return nil
	}
	return &domain.ValidationError{Reasons: reasons}
}

func (s *Session) ensureEditing() error {
	switch s.status {
	case domain.CheckoutStatusEditing:
		return nil
	case domain.CheckoutStatusCompleted:
		return domain.ErrSessionCompleted
	default:
		return domain.ErrSessionNotEditable
	}
}

// Discard помечает сессию брошенной. Идущий платёж не отменяется: при позднем успехе
// корзина всё равно очищается. Возвращает true, если платёж сейчас в процессе.
func (s *Session) Discard() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discarded = true
	return s.status == domain.CheckoutStatusSubmitting
}

// Submit переводит сессию в submitting, выполняет списание и завершает заказ.
// При ошибке оплаты сессия возвращается в editing, корзина не меняется.
func (s *Session) Submit(ctx context.Context) (domain.OrderConfirmation, error) {
	s.mu.Lock()
	switch s.status {
	case domain.CheckoutStatusSubmitting:
		s.mu.Unlock()
		s.recordSubmit("rejected")
		return domain.OrderConfirmation{}, domain.ErrAlreadySubmitting
	case domain.CheckoutStatusCompleted:
		s.mu.Unlock()
		s.recordSubmit("rejected")
		return domain.OrderConfirmation{}, domain.ErrSessionCompleted
	}
	if err := s.validateLocked(); err != nil {
		s.mu.Unlock()
		s.recordSubmit("validation")
		return domain.OrderConfirmation{}, err
	}

	s.status = domain.CheckoutStatusSubmitting
	s.lastErr = nil
	orderID := s.deps.NewID()
	items := domain.CloneLineItems(s.items)
	buyer := s.buyer
	method := s.method
	s.mu.Unlock()

	total := domain.CartTotal(items)
	logger := s.logger.WithFields(log.Fields{
		"order_id": orderID,
		"total":    domain.FormatAmount(total),
		"method":   method,
	})
	logger.Info("checkout submitted")

	receipt, err := s.charge(ctx, domain.ChargeRequest{
		Reference: orderID,
		Amount:    total,
		Method:    method,
		Buyer:     buyer,
	})
	if err != nil {
		s.mu.Lock()
		s.status = domain.CheckoutStatusEditing
		s.lastErr = err
		s.mu.Unlock()

		logger.WithError(err).Warn("payment failed, session back to editing")
		s.recordSubmit(submitResult(err))
		return domain.OrderConfirmation{}, fmt.Errorf("charge order %s: %w", orderID, err)
	}

	confirmation := domain.OrderConfirmation{
		OrderID:       orderID,
		Items:         items,
		Buyer:         buyer,
		PaymentMethod: method,
		Total:         total,
		PaymentRef:    receipt.ExternalID,
		SubmittedAt:   s.deps.Now().UTC(),
	}

	s.mu.Lock()
	s.status = domain.CheckoutStatusCompleted
	s.confirmed = &confirmation
	discarded := s.discarded
	s.mu.Unlock()

	if s.deps.Cart != nil {
		s.deps.Cart.Clear()
	}
	if discarded {
		logger.Info("payment completed after session was discarded, cart cleared")
	}

	s.publish(ctx, confirmation, logger)
	s.recordSubmit("ok")
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordConfirmed(total)
	}
	logger.WithField("payment_ref", receipt.ExternalID).Info("order confirmed")
	return confirmation, nil
}

func (s *Session) charge(ctx context.Context, req domain.ChargeRequest) (domain.ChargeReceipt, error) {
	if s.deps.Gateway == nil {
		return domain.ChargeReceipt{}, fmt.Errorf("%w: payment gateway is not configured", domain.ErrPaymentTemporary)
	}

	chargeCtx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()

	started := s.deps.Now()
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordSubmitStarted()
	}
	receipt, err := s.deps.Gateway.Charge(chargeCtx, req)
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordSubmitFinished(s.deps.Now().Sub(started))
	}

	if err == nil {
		return receipt, nil
	}
	if !errors.Is(err, domain.ErrPaymentTimeout) &&
		(errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		err = fmt.Errorf("%w: %v", domain.ErrPaymentTimeout, err)
	}
	return domain.ChargeReceipt{}, err
}

func (s *Session) publish(ctx context.Context, confirmation domain.OrderConfirmation, logger *log.Entry) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.PublishConfirmation(context.WithoutCancel(ctx), confirmation); err != nil {
		logger.WithError(err).Error("failed to publish order confirmation")
	}
}

func (s *Session) recordSubmit(result string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordSubmit(result)
	}
}

func submitResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrPaymentDeclined):
		return "declined"
	case errors.Is(err, domain.ErrPaymentTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}
