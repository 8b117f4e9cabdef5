package auth

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const (
	defaultRefreshInterval = time.Minute
	defaultMinValidity     = 30 * time.Second
)

var (
	tokenRefreshRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_token_refresh_runs_total",
		Help: "Total number of background token refresh runs grouped by result.",
	}, []string{"result"})
	tokenRefreshedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_token_refreshed_total",
		Help: "Total number of background runs that obtained a new access token.",
	})
)

// RefresherOptions задаёт параметры фонового обновления токена.
type RefresherOptions struct {
	Logger      *log.Entry
	Interval    time.Duration
	MinValidity time.Duration
}

// RefresherOption настраивает Refresher.
type RefresherOption func(*RefresherOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) RefresherOption {
	return func(opts *RefresherOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт период между попытками обновления.
func WithInterval(interval time.Duration) RefresherOption {
	return func(opts *RefresherOptions) {
		opts.Interval = interval
	}
}

// WithMinValidity задаёт окно до истечения токена, в котором выполняется обновление.
func WithMinValidity(minValidity time.Duration) RefresherOption {
	return func(opts *RefresherOptions) {
		opts.MinValidity = minValidity
	}
}

// Refresher — фоновый воркер тихого обновления токена. Работает по
// фиксированному таймеру независимо от активности запросов. Ошибки
// логируются и сами по себе сессию не деаутентифицируют: из
// authenticated сессию выводит только неуспешное обновление после 401.
type Refresher struct {
	session     *Session
	logger      *log.Entry
	interval    time.Duration
	minValidity time.Duration
}

// NewRefresher создаёт воркер с настройками по умолчанию: раз в минуту,
// окно валидности 30 секунд.
func NewRefresher(session *Session, opts ...RefresherOption) *Refresher {
	options := RefresherOptions{
		Interval:    defaultRefreshInterval,
		MinValidity: defaultMinValidity,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = log.WithField("component", "token-refresher")
	}
	if options.Interval <= 0 {
		options.Interval = defaultRefreshInterval
	}
	if options.MinValidity <= 0 {
		options.MinValidity = defaultMinValidity
	}
	return &Refresher{
		session:     session,
		logger:      options.Logger,
		interval:    options.Interval,
		minValidity: options.MinValidity,
	}
}

// Run крутит цикл обновления до отмены контекста.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.WithField("interval", r.interval).Info("фоновое обновление токена запущено")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("фоновое обновление токена остановлено")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	if !r.session.Authenticated() {
		tokenRefreshRunsTotal.WithLabelValues("skipped").Inc()
		return
	}

	refreshed, err := r.session.Refresh(ctx, r.minValidity)
	if err != nil {
		tokenRefreshRunsTotal.WithLabelValues("error").Inc()
		r.logger.WithError(err).Warn("фоновое обновление токена не удалось")
		return
	}

	tokenRefreshRunsTotal.WithLabelValues("ok").Inc()
	if refreshed {
		tokenRefreshedTotal.Inc()
		r.logger.Debug("токен обновлён в фоне")
	}
}
