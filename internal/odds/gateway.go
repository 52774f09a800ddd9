package odds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/cavs-spread-bets/internal/games"
	"github.com/radieske/cavs-spread-bets/internal/shared/apperr"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = time.Second
	maxBodyBytes       = 4 << 20
)

// Config parametriza o acesso ao provedor de odds
type Config struct {
	APIKey      string
	OddsURL     string
	ScoresURL   string
	TrackedTeam string

	Timeout        time.Duration // timeout por requisição
	MaxRetries     int           // retentativas após a primeira chamada
	BaseBackoff    time.Duration // 1s, 2s, 4s...
	Cooldown       time.Duration // janela do circuito aberto
	ScoresDaysFrom int
}

// StaleGameLookup é a única capacidade do GameStore que o gateway precisa:
// ler o último jogo upcoming para servir como fallback.
type StaleGameLookup interface {
	GetLastUpcomingGame(ctx context.Context) (*games.Game, error)
}

// NextGameResult é o próximo jogo com a marcação de dado stale
type NextGameResult struct {
	Game         games.ParsedGame
	StaleWarning bool
}

// Gateway conversa com o provedor de odds com retry e circuit breaker
type Gateway struct {
	cfg     Config
	http    *http.Client
	breaker *breaker
	stale   StaleGameLookup
	log     *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error

	OnAttempt     func(result string) // métricas: ok|retryable|fatal
	OnBreakerOpen func()              // métricas
	OnFallback    func()              // métricas
}

func NewGateway(cfg Config, stale StaleGameLookup, log *zap.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultBaseBackoff
	}
	if cfg.ScoresDaysFrom <= 0 {
		cfg.ScoresDaysFrom = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: newBreaker(cfg.Cooldown),
		stale:   stale,
		log:     log,
		sleep:   sleepCtx,
	}
}

// FetchNextGame busca o próximo jogo do time acompanhado.
// Retorna (nil, nil) quando não há jogo ou o gateway não está configurado;
// erro se o ctx do chamador acabar ou se a leitura do fallback no banco falhar.
func (g *Gateway) FetchNextGame(ctx context.Context) (*NextGameResult, error) {
	if g.cfg.APIKey == "" || g.cfg.OddsURL == "" {
		g.log.Warn("ODDS_API_KEY or ODDS_API_ENDPOINT not configured")
		return nil, nil
	}

	if !g.breaker.allow() {
		g.log.Warn("odds circuit breaker open, serving fallback", zap.String("state", g.breaker.state()))
		return g.fallback(ctx)
	}

	params := url.Values{}
	params.Set("apiKey", g.cfg.APIKey)
	params.Set("regions", "us")
	params.Set("markets", "spreads")
	params.Set("oddsFormat", "american")

	var data []OddsGame
	body, err := g.getWithRetry(ctx, g.cfg.OddsURL, params)
	if err == nil {
		if jerr := json.Unmarshal(body, &data); jerr != nil {
			err = fmt.Errorf("%w: decode odds response: %v", apperr.ErrUpstreamUnavailable, jerr)
		}
	}
	if err != nil && ctx.Err() != nil {
		// cancelamento do chamador não diz nada sobre o provedor
		g.breaker.release()
		return nil, ctx.Err()
	}
	if err != nil {
		g.breaker.failure()
		if g.OnBreakerOpen != nil {
			g.OnBreakerOpen()
		}
		g.log.Error("failed to fetch from odds api, circuit opened", zap.Error(err))
		return g.fallback(ctx)
	}
	g.breaker.success()

	parsed, reason := ParseNextGame(data, g.cfg.TrackedTeam)
	if parsed == nil {
		g.log.Warn(reason, zap.String("team", g.cfg.TrackedTeam), zap.Int("games", len(data)))
		return nil, nil
	}
	return &NextGameResult{Game: *parsed}, nil
}

// fallback devolve o último jogo upcoming conhecido marcado como stale
func (g *Gateway) fallback(ctx context.Context) (*NextGameResult, error) {
	if g.stale == nil {
		return nil, nil
	}
	last, err := g.stale.GetLastUpcomingGame(ctx)
	if err != nil {
		return nil, fmt.Errorf("odds fallback: %w", err)
	}
	if last == nil {
		g.log.Warn("no fallback game available")
		return nil, nil
	}
	if g.OnFallback != nil {
		g.OnFallback()
	}
	return &NextGameResult{
		Game: games.ParsedGame{
			GameID:    last.GameID,
			HomeTeam:  last.HomeTeam,
			AwayTeam:  last.AwayTeam,
			StartTime: last.StartTime,
			Spread:    last.Spread,
		},
		StaleWarning: true,
	}, nil
}

// FetchCompletedScores busca placares de jogos concluídos no último dia.
// Qualquer falha vira lista vazia: o chamador trata como "sem placares novos".
func (g *Gateway) FetchCompletedScores(ctx context.Context) []CompletedScore {
	if g.cfg.APIKey == "" || g.cfg.ScoresURL == "" {
		g.log.Warn("ODDS_API_KEY or scores endpoint not configured")
		return nil
	}

	params := url.Values{}
	params.Set("apiKey", g.cfg.APIKey)
	params.Set("daysFrom", strconv.Itoa(g.cfg.ScoresDaysFrom))

	body, err := g.getWithRetry(ctx, g.cfg.ScoresURL, params)
	if err != nil {
		g.log.Error("failed to fetch scores", zap.Error(err))
		return nil
	}

	var data []ScoreGame
	if err := json.Unmarshal(body, &data); err != nil {
		g.log.Error("failed to decode scores", zap.Error(err))
		return nil
	}
	return ParseCompletedScores(data)
}

// getWithRetry faz GET com retry exponencial (1s, 2s, 4s) para erro de rede e 5xx.
// 4xx não é retentado.
func (g *Gateway) getWithRetry(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint: %v", apperr.ErrMisconfigured, err)
	}
	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	fullURL := u.String()

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		body, status, err := g.get(ctx, fullURL)
		switch {
		case err == nil && status >= 200 && status < 300:
			g.attempt("ok")
			return body, nil
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			lastErr = fmt.Errorf("%w: send request: %v", apperr.ErrUpstreamUnavailable, err)
			g.attempt("retryable")
		case status >= 500:
			lastErr = fmt.Errorf("%w: provider status=%d", apperr.ErrUpstreamUnavailable, status)
			g.attempt("retryable")
		default:
			g.attempt("fatal")
			return nil, fmt.Errorf("%w: provider status=%d", apperr.ErrUpstreamUnavailable, status)
		}

		if attempt == g.cfg.MaxRetries {
			break
		}
		backoff := g.cfg.BaseBackoff << attempt
		g.log.Warn("odds request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr),
		)
		if err := g.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (g *Gateway) get(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func (g *Gateway) attempt(result string) {
	if g.OnAttempt != nil {
		g.OnAttempt(result)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errors.Join(apperr.ErrUpstreamUnavailable, ctx.Err())
	case <-timer.C:
		return nil
	}
}
