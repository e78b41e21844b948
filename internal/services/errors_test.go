package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWrapTagsAndFormats(t *testing.T) {
	underlying := errors.New("connection refused")
	err := Wrap(ErrTransient, "identify", "acoustid lookup", "attempt 1", underlying)

	if !errors.Is(err, ErrTransient) {
		t.Fatal("marker not preserved")
	}
	if !errors.Is(err, underlying) {
		t.Fatal("underlying error not preserved")
	}
	for _, fragment := range []string{"identify", "acoustid lookup", "attempt 1", "connection refused"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("message %q missing %q", err, fragment)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("empty detail should fall back: %q", err)
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(Wrap(ErrTimeout, "analysis", "flac -t", "", nil)) {
		t.Error("timeouts are transient")
	}
	if IsTransient(Wrap(ErrNotFound, "identify", "musicbrainz", "", nil)) {
		t.Error("not-found is final")
	}
	if IsTransient(errors.New("plain")) {
		t.Error("untagged errors are final")
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{Attempts: 3, Base: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 2 {
			return Wrap(ErrTransient, "t", "op", "", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestRetryStopsOnFinalError(t *testing.T) {
	calls := 0
	final := Wrap(ErrExternalTool, "t", "op", "", nil)
	err := Retry(context.Background(), RetryPolicy{Attempts: 5, Base: time.Millisecond}, func(context.Context) error {
		calls++
		return final
	})
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("non-transient error should not be retried, calls = %d", calls)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{Attempts: 3, Base: time.Millisecond, Factor: 2}, func(context.Context) error {
		calls++
		return Wrap(ErrTransient, "t", "op", "", nil)
	})
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("err = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, RetryPolicy{Attempts: 3, Base: time.Hour}, func(context.Context) error {
		return Wrap(ErrTransient, "t", "op", "", nil)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestContextAnnotations(t *testing.T) {
	ctx := context.Background()
	if _, ok := FileIDFromContext(ctx); ok {
		t.Fatal("bare context has no file id")
	}

	ctx = WithFileID(ctx, 42)
	ctx = WithPhase(ctx, "analyze")
	ctx = WithRunID(ctx, "run-1")

	if id, ok := FileIDFromContext(ctx); !ok || id != 42 {
		t.Errorf("file id = %d %v", id, ok)
	}
	if phase, ok := PhaseFromContext(ctx); !ok || phase != "analyze" {
		t.Errorf("phase = %s %v", phase, ok)
	}
	if runID, ok := RunIDFromContext(ctx); !ok || runID != "run-1" {
		t.Errorf("run id = %s %v", runID, ok)
	}
}
