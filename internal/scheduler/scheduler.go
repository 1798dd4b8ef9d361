package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/service"
)

const defaultRunTimeout = 5 * time.Minute

// VerificationRunner es lo que el scheduler dispara en cada tick.
type VerificationRunner interface {
	Run(ctx context.Context) (service.VerificationSummary, error)
}

// VerificationScheduler corre la verificacion de predicciones segun una expresion cron estandar.
// Con spec vacio queda deshabilitado y Start/Stop no hacen nada.
type VerificationScheduler struct {
	logger  *zap.Logger
	runner  VerificationRunner
	spec    string
	timeout time.Duration
	cron    *cron.Cron
}

func NewVerificationScheduler(logger *zap.Logger, runner VerificationRunner, spec string, timeout time.Duration) (*VerificationScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	s := &VerificationScheduler{logger: logger, runner: runner, spec: spec, timeout: timeout}
	if spec == "" {
		return s, nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid verify cron %q: %w", spec, err)
	}
	return s, nil
}

// Enabled indica si hay un schedule configurado.
func (s *VerificationScheduler) Enabled() bool {
	return s.cron != nil
}

func (s *VerificationScheduler) Start() {
	if s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("verification scheduler started", zap.String("spec", s.spec))
}

// Stop detiene el cron y espera a que termine la corrida en curso o a que venza ctx.
func (s *VerificationScheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("verification scheduler stop timed out")
	}
}

func (s *VerificationScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	summary, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, service.ErrVerificationRunning):
		s.logger.Info("scheduled verification skipped, another run in progress")
	case err != nil:
		s.logger.Error("scheduled verification failed", zap.Error(err))
	default:
		s.logger.Debug("scheduled verification done", zap.Int("verified", summary.Verified))
	}
}
