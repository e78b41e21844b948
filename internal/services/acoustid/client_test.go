package acoustid

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tonearm/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestLookupFlattensAndOrdersCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("client") != "test-key" {
			t.Errorf("client = %s", r.PostForm.Get("client"))
		}
		if r.PostForm.Get("fingerprint") != "AQAA_fp" {
			t.Errorf("fingerprint = %s", r.PostForm.Get("fingerprint"))
		}
		if r.PostForm.Get("duration") != "213" {
			t.Errorf("duration = %s", r.PostForm.Get("duration"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"results": [
				{"score": 0.72, "recordings": [
					{"id": "rec-low", "title": "Halcyon (Live)", "artists": [{"name": "Orbital"}]}
				]},
				{"score": 0.97, "recordings": [
					{"id": "rec-high", "title": "Halcyon", "artists": [{"name": "Orbital"}]},
					{"id": "", "title": "ghost"}
				]}
			]
		}`))
	})

	candidates, err := client.Lookup(context.Background(), "AQAA_fp", 213.4)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2 (recording without id dropped)", len(candidates))
	}
	if candidates[0].RecordingID != "rec-high" || candidates[0].Score != 0.97 {
		t.Fatalf("best candidate = %+v", candidates[0])
	}
	if candidates[0].Artist != "Orbital" {
		t.Errorf("artist = %s", candidates[0].Artist)
	}
	if candidates[1].RecordingID != "rec-low" {
		t.Errorf("second candidate = %+v", candidates[1])
	}
}

func TestLookupNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ok", "results": []}`))
	})

	candidates, err := client.Lookup(context.Background(), "AQAA_unknown", 0)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("candidates = %d, want 0", len(candidates))
	}
}

func TestLookupRateLimitedIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Lookup(context.Background(), "AQAA_fp", 0)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
}

func TestLookupServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := client.Lookup(context.Background(), "AQAA_fp", 0); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
}

func TestLookupServiceErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "error", "error": {"message": "invalid fingerprint"}}`))
	})

	_, err := client.Lookup(context.Background(), "AQAA_fp", 0)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestLookupRequiresFingerprint(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request should be sent")
	})

	if _, err := client.Lookup(context.Background(), "  ", 0); err == nil {
		t.Fatal("blank fingerprint should be rejected")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", "key", 3); err == nil {
		t.Fatal("blank base URL should be rejected")
	}
	if _, err := New("https://api.example.test", "", 3); err == nil {
		t.Fatal("blank api key should be rejected")
	}
}
