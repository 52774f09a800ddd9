package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRunTimeout limita cada execução de job
const DefaultRunTimeout = 2 * time.Minute

// Runner agenda jobs no cron com timeout por execução e proteção contra panic.
// Uma execução ainda em andamento faz a próxima do mesmo job ser pulada.
type Runner struct {
	cron    *cron.Cron
	log     *zap.Logger
	baseCtx context.Context
	timeout time.Duration

	OnRun func(job, status string) // métricas: ok|error|panic
}

func NewRunner(baseCtx context.Context, log *zap.Logger, timeout time.Duration) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	cl := cronLogger{log: log}
	return &Runner{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		log:     log,
		baseCtx: baseCtx,
		timeout: timeout,
	}
}

// Add registra o job na spec (formato cron de 5 campos ou @every/@hourly...)
func (r *Runner) Add(name, spec string, job func(context.Context) error) (cron.EntryID, error) {
	id, err := r.cron.AddFunc(spec, func() { r.run(name, job) })
	if err != nil {
		return 0, fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return id, nil
}

// run executa uma vez; nunca propaga erro nem panic
func (r *Runner) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(r.baseCtx, r.timeout)
	defer cancel()

	start := time.Now()
	status := "ok"
	defer func() {
		if rec := recover(); rec != nil {
			status = "panic"
			r.log.Error("job panicked", zap.String("job", name), zap.Any("panic", rec))
		}
		if r.OnRun != nil {
			r.OnRun(name, status)
		}
	}()

	if err := job(ctx); err != nil {
		status = "error"
		r.log.Error("job failed", zap.String("job", name), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	r.log.Debug("job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

func (r *Runner) Start() {
	r.log.Info("cron started", zap.Int("jobs", len(r.cron.Entries())))
	r.cron.Start()
}

// Stop para o agendamento e espera os jobs em execução
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.log.Info("cron stopped")
}

// cronLogger adapta zap para a interface cron.Logger
type cronLogger struct {
	log *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
