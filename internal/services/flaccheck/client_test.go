package flaccheck

import (
	"context"
	"errors"
	"testing"

	"tonearm/internal/services"
)

type stubExecutor struct {
	err  error
	args []string
}

func (s *stubExecutor) Run(_ context.Context, _ string, args []string) error {
	s.args = args
	return s.err
}

func TestVerifyPassesCleanStream(t *testing.T) {
	exec := &stubExecutor{}
	client, err := New("flac", 30, WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Verify(context.Background(), "/in/clean.flac"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	want := []string{"-t", "-s", "/in/clean.flac"}
	if len(exec.args) != len(want) || exec.args[0] != "-t" || exec.args[1] != "-s" || exec.args[2] != want[2] {
		t.Fatalf("args = %v, want %v", exec.args, want)
	}
}

func TestVerifyReportsDamagedStream(t *testing.T) {
	exec := &stubExecutor{err: errors.New("damaged.flac: ERROR while decoding data")}
	client, _ := New("flac", 30, WithExecutor(exec))

	err := client.Verify(context.Background(), "/in/damaged.flac")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("", 30); err == nil {
		t.Fatal("blank binary should be rejected")
	}
}
