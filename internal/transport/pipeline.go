package transport

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	// preflightWindow ограничивает «возраст» токена на момент запроса:
	// перед отправкой токен не должен истекать в ближайшие 30 секунд.
	preflightWindow = 30 * time.Second
	// forceRefresh передаётся в Refresh после 401 — токен обновляется
	// безусловно, отклонение сервером важнее остатка срока.
	forceRefresh = -1 * time.Second
	// clientTimeout — фиксированный таймаут исходящих вызовов.
	clientTimeout = 30 * time.Second
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_gateway_requests_total",
		Help: "Total number of gateway requests grouped by method and status code.",
	}, []string{"method", "code"})
	gatewayAuthRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_gateway_auth_retries_total",
		Help: "Total number of requests re-issued after a 401 and a token refresh.",
	})
)

// Pipeline — http.RoundTripper, через который идёт каждый исходящий вызов
// к шлюзу: pre-flight обновление токена, заголовок Authorization и ровно
// одна повторная попытка после 401. Повторный 401 не повторяется —
// пайплайн инициирует повторный вход и отдаёт ответ как есть.
type Pipeline struct {
	base    http.RoundTripper
	session domain.TokenSession
	logger  *log.Entry
}

// NewClient собирает http.Client с пайплайном и фиксированным таймаутом.
func NewClient(session domain.TokenSession, logger *log.Entry) *http.Client {
	return &http.Client{
		Timeout:   clientTimeout,
		Transport: NewPipeline(http.DefaultTransport, session, logger),
	}
}

// NewPipeline оборачивает base транспорт пайплайном.
func NewPipeline(base http.RoundTripper, session domain.TokenSession, logger *log.Entry) *Pipeline {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = log.WithField("component", "pipeline")
	}
	return &Pipeline{base: base, session: session, logger: logger}
}

// RoundTrip выполняет запрос по контракту пайплайна.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	// RoundTripper не должен мутировать исходный запрос.
	req = req.Clone(ctx)

	_, hasCredential := p.session.Token()
	if hasCredential {
		// Неудача pre-flight не фатальна: запрос уйдёт со старым
		// токеном, дальше отработает ветка 401.
		if _, err := p.session.Refresh(ctx, preflightWindow); err != nil {
			p.logger.WithError(err).Debug("pre-flight обновление токена не удалось")
		}
		if token, ok := p.session.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := p.base.RoundTrip(req)
	if err != nil {
		gatewayRequestsTotal.WithLabelValues(req.Method, "error").Inc()
		return nil, err
	}
	gatewayRequestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusUnauthorized || !hasCredential {
		return resp, nil
	}

	// 401: одно принудительное обновление и одна повторная попытка.
	refreshed, rerr := p.session.Refresh(ctx, forceRefresh)
	if rerr != nil || !refreshed {
		if rerr != nil {
			p.logger.WithError(rerr).Warn("обновление токена после 401 не удалось")
		}
		p.session.PromptLogin(ctx)
		// Исходный 401 отдаётся вызывающему как есть.
		return resp, nil
	}

	retry, cerr := cloneForRetry(req)
	if cerr != nil {
		p.logger.WithError(cerr).Warn("не удалось повторить запрос после 401")
		return resp, nil
	}
	if token, ok := p.session.Token(); ok {
		retry.Header.Set("Authorization", "Bearer "+token)
	}
	drainBody(resp)
	gatewayAuthRetriesTotal.Inc()

	retryResp, retryErr := p.base.RoundTrip(retry)
	if retryErr != nil {
		gatewayRequestsTotal.WithLabelValues(retry.Method, "error").Inc()
		return nil, retryErr
	}
	gatewayRequestsTotal.WithLabelValues(retry.Method, strconv.Itoa(retryResp.StatusCode)).Inc()

	if retryResp.StatusCode == http.StatusUnauthorized {
		// Второй 401 подряд: больше не повторяем, только повторный вход.
		p.session.PromptLogin(ctx)
	}
	return retryResp, nil
}

// cloneForRetry готовит копию запроса для повторной отправки вместе с телом.
func cloneForRetry(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

func drainBody(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

var _ http.RoundTripper = (*Pipeline)(nil)
