package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"crowdfund-advisor/internal/service"
)

type fakeRunner struct {
	calls int
	err   error
	ctxOK bool
}

func (f *fakeRunner) Run(ctx context.Context) (service.VerificationSummary, error) {
	f.calls++
	_, f.ctxOK = ctx.Deadline()
	return service.VerificationSummary{Verified: 1}, f.err
}

func TestNewVerificationScheduler_EmptySpecDisabled(t *testing.T) {
	s, err := NewVerificationScheduler(zap.NewNop(), &fakeRunner{}, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Enabled() {
		t.Fatalf("expected scheduler to be disabled")
	}
	s.Start()
	s.Stop(context.Background())
}

func TestNewVerificationScheduler_InvalidSpec(t *testing.T) {
	if _, err := NewVerificationScheduler(zap.NewNop(), &fakeRunner{}, "every tuesday", 0); err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}
}

func TestVerificationScheduler_StartStop(t *testing.T) {
	s, err := NewVerificationScheduler(zap.NewNop(), &fakeRunner{}, "0 3 * * *", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Enabled() {
		t.Fatalf("expected scheduler to be enabled")
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestVerificationScheduler_RunOnce(t *testing.T) {
	runner := &fakeRunner{}
	s, _ := NewVerificationScheduler(zap.NewNop(), runner, "@hourly", time.Minute)

	s.runOnce()
	if runner.calls != 1 || !runner.ctxOK {
		t.Fatalf("expected one run with a deadline, got calls=%d deadline=%v", runner.calls, runner.ctxOK)
	}

	runner.err = service.ErrVerificationRunning
	s.runOnce()
	runner.err = errors.New("db down")
	s.runOnce()
	if runner.calls != 3 {
		t.Fatalf("expected runs to continue after errors, got %d", runner.calls)
	}
}
