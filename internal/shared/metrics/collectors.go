package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors agrupa as métricas Prometheus do bet-service.
// Os componentes não importam prometheus: recebem callbacks (OnX) ligados aqui no main.
type Collectors struct {
	OddsFetchAttempts *prometheus.CounterVec // result: ok|retryable|fatal
	BreakerOpened     prometheus.Counter
	FallbackServed    prometheus.Counter
	CacheLookups      *prometheus.CounterVec // result: hit|miss
	GamesSettled      prometheus.Counter
	BetsSettled       *prometheus.CounterVec // outcome: won|lost|push
	JobRuns           *prometheus.CounterVec // job, status: ok|error|panic
	BroadcastErrors   *prometheus.CounterVec // sink: kafka|redis
	BetsPlaced        *prometheus.CounterVec // selection: cavaliers|opponent
}

// NewCollectors cria e registra as métricas no registerer informado
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		OddsFetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_fetch_attempts_total", Help: "tentativas de chamada ao provedor de odds"}, []string{"result"}),
		BreakerOpened:     prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_circuit_opened_total", Help: "aberturas do circuit breaker"}),
		FallbackServed:    prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_fallback_served_total", Help: "respostas servidas com dados stale"}),
		CacheLookups:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "next_game_cache_lookups_total", Help: "consultas ao cache do próximo jogo"}, []string{"result"}),
		GamesSettled:      prometheus.NewCounter(prometheus.CounterOpts{Name: "games_settled_total", Help: "jogos liquidados"}),
		BetsSettled:       prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bets_settled_total", Help: "apostas liquidadas por resultado"}, []string{"outcome"}),
		JobRuns:           prometheus.NewCounterVec(prometheus.CounterOpts{Name: "scheduler_job_runs_total", Help: "execuções de jobs agendados"}, []string{"job", "status"}),
		BroadcastErrors:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "broadcast_errors_total", Help: "falhas ao publicar eventos"}, []string{"sink"}),
		BetsPlaced:        prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bets_placed_total", Help: "apostas criadas por seleção"}, []string{"selection"}),
	}
	reg.MustRegister(
		c.OddsFetchAttempts, c.BreakerOpened, c.FallbackServed, c.CacheLookups,
		c.GamesSettled, c.BetsSettled, c.JobRuns, c.BroadcastErrors, c.BetsPlaced,
	)
	return c
}
