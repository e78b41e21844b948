package fpcalc

import (
	"context"
	"errors"
	"testing"

	"tonearm/internal/services"
)

type stubExecutor struct {
	output []byte
	err    error

	binary string
	args   []string
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	s.binary = binary
	s.args = args
	return s.output, s.err
}

func TestFingerprintParsesOutput(t *testing.T) {
	exec := &stubExecutor{output: []byte(`{"duration": 213.5, "fingerprint": "AQAA_abc"}`)}
	client, err := New("fpcalc", 120, 30, WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}

	result, err := client.Fingerprint(context.Background(), "/in/track.mp3")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if result.Fingerprint != "AQAA_abc" || result.DurationSec != 213.5 {
		t.Fatalf("result = %+v", result)
	}

	if exec.binary != "fpcalc" {
		t.Errorf("binary = %s", exec.binary)
	}
	want := []string{"-json", "-length", "120", "/in/track.mp3"}
	if len(exec.args) != len(want) {
		t.Fatalf("args = %v", exec.args)
	}
	for i := range want {
		if exec.args[i] != want[i] {
			t.Fatalf("args = %v, want %v", exec.args, want)
		}
	}
}

func TestFingerprintCommandFailure(t *testing.T) {
	exec := &stubExecutor{err: errors.New("ERROR: couldn't decode the file")}
	client, _ := New("fpcalc", 0, 0, WithExecutor(exec))

	_, err := client.Fingerprint(context.Background(), "/in/broken.mp3")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestFingerprintGarbledOutput(t *testing.T) {
	exec := &stubExecutor{output: []byte("not json")}
	client, _ := New("fpcalc", 0, 0, WithExecutor(exec))

	if _, err := client.Fingerprint(context.Background(), "/in/track.mp3"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestFingerprintEmptyFingerprint(t *testing.T) {
	exec := &stubExecutor{output: []byte(`{"duration": 10, "fingerprint": ""}`)}
	client, _ := New("fpcalc", 0, 0, WithExecutor(exec))

	if _, err := client.Fingerprint(context.Background(), "/in/track.mp3"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("  ", 0, 0); err == nil {
		t.Fatal("blank binary should be rejected")
	}
}
