package workspace

import (
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/cart"
	"github.com/vladislavdragonenkov/bookcart/internal/checkout"
	"github.com/vladislavdragonenkov/bookcart/internal/domain"
	"github.com/vladislavdragonenkov/bookcart/internal/listings"
	"github.com/vladislavdragonenkov/bookcart/internal/metrics"
	"github.com/vladislavdragonenkov/bookcart/internal/storage/kv"
)

// Config — зависимости реестра.
type Config struct {
	Store            domain.PersistentStore
	LedgerMetrics    *metrics.LedgerMetrics
	CheckoutMetrics  *metrics.CheckoutMetrics
	Gateway          domain.PaymentGateway
	Confirmations    domain.ConfirmationPublisher
	ListingPublisher domain.ListingPublisher
	SubmitTimeout    time.Duration
	Logger           *log.Entry
	Now              func() time.Time
}

type sessionEntry struct {
	session *checkout.Session
	cartID  string
}

// Registry лениво создаёт рабочие пространства по идентификатору корзины
// и хранит открытые сессии оформления заказа.
type Registry struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace
	sessions   map[string]sessionEntry
	// draining — закрытые сессии, у которых ещё идёт оплата.
	draining map[string]sessionEntry

	cfg    Config
	logger *log.Entry
}

// NewRegistry создаёт реестр.
func NewRegistry(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = log.WithField("component", "workspace-registry")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		workspaces: make(map[string]*Workspace),
		sessions:   make(map[string]sessionEntry),
		draining:   make(map[string]sessionEntry),
		cfg:        cfg,
		logger:     cfg.Logger,
	}
}

// Get возвращает рабочее пространство корзины, восстанавливая его из хранилища при первом обращении.
func (r *Registry) Get(cartID string) *Workspace {
	cartID = strings.TrimSpace(cartID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if ws, ok := r.workspaces[cartID]; ok {
		return ws
	}

	logger := r.logger.WithField("cart_id", cartID)
	store := kv.Namespace(r.cfg.Store, cartID)

	cartLedger := cart.NewLedger(store, cart.WithLogger(logger), cart.WithMetrics(r.cfg.LedgerMetrics))
	cartLedger.Rehydrate()
	listingsLedger := listings.NewLedger(store, listings.WithLogger(logger), listings.WithMetrics(r.cfg.LedgerMetrics))
	listingsLedger.Rehydrate()

	ws := &Workspace{
		id:        cartID,
		cart:      cartLedger,
		listings:  listingsLedger,
		publisher: r.cfg.ListingPublisher,
		now:       r.cfg.Now,
		logger:    logger,
	}
	ws.touch()
	r.workspaces[cartID] = ws

	logger.WithField("items", cartLedger.Len()).Debug("workspace loaded")
	return ws
}

// OpenCheckout открывает сессию по корзине или по выбранным строкам.
// Пустой выбор даёт domain.ErrCannotCheckoutEmpty.
func (r *Registry) OpenCheckout(cartID string, lineIDs []string) (*checkout.Session, error) {
	ws := r.Get(cartID)
	items, err := ws.snapshotLines(lineIDs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrCannotCheckoutEmpty
	}

	deps := r.sessionDeps(ws.logger)
	deps.Cart = r.clearer(cartID, lineIDs)
	return r.track(cartID, checkout.NewSession(items, deps)), nil
}

// OpenBuyNow открывает сессию на одну позицию. Корзина при этом не меняется.
func (r *Registry) OpenBuyNow(cartID string, item domain.CatalogItem, qty int) *checkout.Session {
	ws := r.Get(cartID)
	return r.track(cartID, checkout.NewSingleItemSession(item, qty, r.sessionDeps(ws.logger)))
}

// Session возвращает сессию, принадлежащую корзине.
func (r *Registry) Session(cartID, sessionID string) (*checkout.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sessionID]
	if !ok || entry.cartID != strings.TrimSpace(cartID) {
		return nil, domain.ErrSessionNotFound
	}
	return entry.session, nil
}

// DiscardSession закрывает сессию. Платёж в процессе доводится до конца.
func (r *Registry) DiscardSession(cartID, sessionID string) error {
	r.mu.Lock()
	entry, ok := r.sessions[sessionID]
	if !ok || entry.cartID != strings.TrimSpace(cartID) {
		r.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	delete(r.sessions, sessionID)
	inFlight := entry.session.Discard()
	if inFlight {
		r.draining[sessionID] = entry
	}
	r.mu.Unlock()

	if inFlight {
		r.logger.WithFields(log.Fields{
			"cart_id":    entry.cartID,
			"session_id": sessionID,
		}).Info("checkout discarded while payment in flight")
	}
	return nil
}

// Len возвращает число загруженных рабочих пространств и открытых сессий.
func (r *Registry) Len() (workspaces, sessions int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces), len(r.sessions)
}

// Sweep закрывает сессии старше sessionTTL (кроме тех, где идёт оплата)
// и выгружает рабочие пространства без активности дольше idleTTL, без открытых сессий
// и без закрытых сессий с незавершённой оплатой.
func (r *Registry) Sweep(now time.Time, sessionTTL, idleTTL time.Duration) (expiredSessions, evicted int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	busy := make(map[string]struct{})
	for id, entry := range r.sessions {
		expired := sessionTTL > 0 && now.Sub(entry.session.CreatedAt()) > sessionTTL
		if expired && entry.session.Status() != domain.CheckoutStatusSubmitting {
			entry.session.Discard()
			delete(r.sessions, id)
			expiredSessions++
			continue
		}
		busy[entry.cartID] = struct{}{}
	}
	for id, entry := range r.draining {
		if entry.session.Status() != domain.CheckoutStatusSubmitting {
			delete(r.draining, id)
			continue
		}
		busy[entry.cartID] = struct{}{}
	}

	if idleTTL > 0 {
		cutoff := now.Add(-idleTTL)
		for id, ws := range r.workspaces {
			if _, ok := busy[id]; ok {
				continue
			}
			if ws.idleSince(cutoff) {
				delete(r.workspaces, id)
				evicted++
			}
		}
	}
	return expiredSessions, evicted
}

// clearer очищает корзину после оплаты через текущее рабочее пространство:
// если прежнее было выгружено, Get восстановит его из хранилища.
func (r *Registry) clearer(cartID string, lineIDs []string) checkout.CartClearer {
	ids := append([]string(nil), lineIDs...)
	return checkout.CartClearerFunc(func() {
		r.Get(cartID).clearLines(ids)
	})
}

func (r *Registry) sessionDeps(logger *log.Entry) checkout.Deps {
	return checkout.Deps{
		Gateway:   r.cfg.Gateway,
		Publisher: r.cfg.Confirmations,
		Metrics:   r.cfg.CheckoutMetrics,
		Logger:    logger,
		Timeout:   r.cfg.SubmitTimeout,
		Now:       r.cfg.Now,
	}
}

func (r *Registry) track(cartID string, s *checkout.Session) *checkout.Session {
	r.mu.Lock()
	r.sessions[s.ID()] = sessionEntry{session: s, cartID: strings.TrimSpace(cartID)}
	r.mu.Unlock()
	return s
}
