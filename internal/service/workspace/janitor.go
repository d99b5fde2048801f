package workspace

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const (
	defaultJanitorInterval = time.Minute
	defaultSessionTTL      = 30 * time.Minute
	defaultIdleTTL         = 2 * time.Hour
)

var (
	janitorRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookcart_workspace_janitor_runs_total",
		Help: "Total number of workspace janitor runs.",
	})
	janitorEvictedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookcart_workspace_janitor_evicted_total",
		Help: "Total number of evicted objects grouped by kind.",
	}, []string{"kind"})
	janitorLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bookcart_workspace_loaded",
		Help: "Number of loaded objects after the last janitor run grouped by kind.",
	}, []string{"kind"})
)

// JanitorOptions задает параметры janitor.
type JanitorOptions struct {
	Logger     *log.Entry
	Interval   time.Duration
	SessionTTL time.Duration
	IdleTTL    time.Duration
}

// JanitorOption настраивает Janitor.
type JanitorOption func(*JanitorOptions)

// WithLogger задает logger.
func WithLogger(logger *log.Entry) JanitorOption {
	return func(opts *JanitorOptions) {
		opts.Logger = logger
	}
}

// WithInterval задает интервал между проходами.
func WithInterval(interval time.Duration) JanitorOption {
	return func(opts *JanitorOptions) {
		opts.Interval = interval
	}
}

// WithSessionTTL задает время жизни незавершённой сессии оформления.
func WithSessionTTL(ttl time.Duration) JanitorOption {
	return func(opts *JanitorOptions) {
		opts.SessionTTL = ttl
	}
}

// WithIdleTTL задает время простоя, после которого рабочее пространство выгружается из памяти.
func WithIdleTTL(ttl time.Duration) JanitorOption {
	return func(opts *JanitorOptions) {
		opts.IdleTTL = ttl
	}
}

// Janitor периодически чистит реестр.
type Janitor struct {
	registry   *Registry
	logger     *log.Entry
	interval   time.Duration
	sessionTTL time.Duration
	idleTTL    time.Duration
	now        func() time.Time
}

// NewJanitor создает janitor для registry.
func NewJanitor(registry *Registry, options ...JanitorOption) *Janitor {
	opts := JanitorOptions{
		Interval:   defaultJanitorInterval,
		SessionTTL: defaultSessionTTL,
		IdleTTL:    defaultIdleTTL,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "workspace-janitor")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultJanitorInterval
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}

	return &Janitor{
		registry:   registry,
		logger:     logger,
		interval:   opts.Interval,
		sessionTTL: opts.SessionTTL,
		idleTTL:    opts.IdleTTL,
		now:        time.Now,
	}
}

// Run запускает периодическую очистку до отмены ctx.
func (j *Janitor) Run(ctx context.Context) {
	if j.registry == nil {
		j.logger.Warn("workspace janitor is disabled: registry is nil")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep выполняет один проход и возвращает число закрытых сессий и выгруженных пространств.
func (j *Janitor) Sweep() (int, int) {
	sessions, evicted := j.registry.Sweep(j.now(), j.sessionTTL, j.idleTTL)

	janitorRunsTotal.Inc()
	janitorEvictedTotal.WithLabelValues("session").Add(float64(sessions))
	janitorEvictedTotal.WithLabelValues("workspace").Add(float64(evicted))
	loadedWorkspaces, openSessions := j.registry.Len()
	janitorLoaded.WithLabelValues("workspace").Set(float64(loadedWorkspaces))
	janitorLoaded.WithLabelValues("session").Set(float64(openSessions))

	if sessions > 0 || evicted > 0 {
		j.logger.WithFields(log.Fields{
			"expired_sessions":   sessions,
			"evicted_workspaces": evicted,
		}).Info("workspace janitor completed")
	}
	return sessions, evicted
}
