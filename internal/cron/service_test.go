package cron

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/multierr"

	"github.com/lumierecia/restaurant-pos/pkg/logger"
)

type fakeLock struct {
	held     bool
	deny     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.deny || f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	svc, err := NewService(ServiceParams{Logger: logger.Nop(), Registry: registry, Lock: lock})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestRunCycleRunsEveryJobAndCombinesFailures(t *testing.T) {
	ok := &testJob{name: "ok"}
	first := &testJob{name: "first", err: errors.New("boom")}
	second := &testJob{name: "second", err: errors.New("bang")}
	lock := &fakeLock{}
	svc := newTestService(t, lock, first, ok, second)

	err := svc.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected combined error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", got, err)
	}
	for _, job := range []*testJob{ok, first, second} {
		if job.runs != 1 {
			t.Fatalf("job %s ran %d times", job.name, job.runs)
		}
	}
	if lock.held || lock.releases != 1 {
		t.Fatalf("expected lock released once, held=%v releases=%d", lock.held, lock.releases)
	}
}

func TestRunCycleSkipsWhenLockHeldElsewhere(t *testing.T) {
	job := &testJob{name: "job"}
	svc := newTestService(t, &fakeLock{deny: true}, job)

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs, got %d", job.runs)
	}
}

func TestRunCycleStopsOnCanceledContext(t *testing.T) {
	job := &testJob{name: "job"}
	svc := newTestService(t, &fakeLock{}, job)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.RunOnce(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs, got %d", job.runs)
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error without lock")
	}
}
