package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeProvider counts calls and returns scripted results
type fakeProvider struct {
	name        string
	generateErr error
	output      string
	healthErr   error

	generateCalls int
	healthCalls   int
}

func (f *fakeProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	f.generateCalls++
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.output, nil
}

func (f *fakeProvider) HealthCheck(ctx context.Context) error {
	f.healthCalls++
	return f.healthErr
}

func (f *fakeProvider) Name() string { return f.name }

func TestGateway_PrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", output: `{"ok":true}`}
	secondary := &fakeProvider{name: "secondary"}
	g := NewGateway(primary, secondary, 3, time.Millisecond, nil)

	out, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() returned error: %v", err)
	}
	if out != `{"ok":true}` {
		t.Errorf("unexpected output: %q", out)
	}
	if primary.generateCalls != 1 {
		t.Errorf("expected 1 primary attempt, got %d", primary.generateCalls)
	}
	if secondary.generateCalls != 0 || secondary.healthCalls != 0 {
		t.Error("secondary should not be touched when primary succeeds")
	}
}

func TestGateway_FailoverAfterExactRetryCount(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", generateErr: errors.New("boom")}
	secondary := &fakeProvider{name: "secondary", output: "fallback output"}
	g := NewGateway(primary, secondary, 3, time.Millisecond, nil)

	out, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() returned error: %v", err)
	}
	if out != "fallback output" {
		t.Errorf("expected secondary output, got %q", out)
	}
	if primary.generateCalls != 3 {
		t.Errorf("expected exactly 3 failed primary attempts, got %d", primary.generateCalls)
	}
	if secondary.healthCalls != 1 {
		t.Errorf("expected 1 liveness probe, got %d", secondary.healthCalls)
	}
	if secondary.generateCalls != 1 {
		t.Errorf("expected exactly 1 secondary attempt, got %d", secondary.generateCalls)
	}
}

func TestGateway_BothFail(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", generateErr: errors.New("primary down")}
	secondary := &fakeProvider{name: "secondary", generateErr: errors.New("secondary down")}
	g := NewGateway(primary, secondary, 2, time.Millisecond, nil)

	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error when both providers fail")
	}

	var unavailable *ModelUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ModelUnavailableError, got %T", err)
	}
	if unavailable.PrimaryErr == nil || unavailable.SecondaryErr == nil {
		t.Error("expected both failure causes to be carried")
	}
	if !IsModelUnavailable(err) {
		t.Error("IsModelUnavailable should report true")
	}
}

func TestGateway_ProbeCachedAcrossCalls(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", generateErr: errors.New("down")}
	secondary := &fakeProvider{name: "secondary", healthErr: errors.New("unreachable")}
	g := NewGateway(primary, secondary, 1, time.Millisecond, nil)

	for i := 0; i < 3; i++ {
		if _, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"}); err == nil {
			t.Fatal("expected error")
		}
	}
	if secondary.healthCalls != 1 {
		t.Errorf("probe result should be cached, got %d probes", secondary.healthCalls)
	}
	if secondary.generateCalls != 0 {
		t.Error("secondary should never be attempted when probed down")
	}

	g.ResetProbe()
	if _, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"}); err == nil {
		t.Fatal("expected error")
	}
	if secondary.healthCalls != 2 {
		t.Errorf("ResetProbe should allow a fresh probe, got %d probes", secondary.healthCalls)
	}
}

func TestGateway_CancelDuringBackoffKeepsCause(t *testing.T) {
	t.Parallel()

	attemptErr := errors.New("primary exploded")
	primary := &fakeProvider{name: "primary", generateErr: attemptErr}
	g := NewGateway(primary, nil, 3, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := g.Generate(ctx, GenerateRequest{Prompt: "hi"})
		done <- err
	}()

	// First attempt fails immediately; the goroutine is now in the hour-long
	// backoff sleep when we cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	err := <-done
	var unavailable *ModelUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ModelUnavailableError, got %T", err)
	}
	if !errors.Is(unavailable.PrimaryErr, attemptErr) {
		t.Errorf("expected the attempt failure to survive cancellation, got %v", unavailable.PrimaryErr)
	}
	if !strings.Contains(unavailable.PrimaryErr.Error(), context.Canceled.Error()) {
		t.Errorf("expected the cancellation to be mentioned, got %v", unavailable.PrimaryErr)
	}
}

func TestGateway_NoSecondary(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", generateErr: errors.New("down")}
	g := NewGateway(primary, nil, 2, time.Millisecond, nil)

	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if !IsModelUnavailable(err) {
		t.Fatalf("expected ModelUnavailableError, got %v", err)
	}
}
