// Package acoustid queries the AcoustID recording-identification service.
//
// The service quota is 3 requests per second per application; the client
// enforces that limit itself so parallel file analyses still serialize
// against the quota.
package acoustid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tonearm/internal/services"
)

// Candidate is one possible recording match for a fingerprint.
type Candidate struct {
	RecordingID string
	Artist      string
	Title       string
	Score       float64
}

// Client talks to the AcoustID lookup endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// New constructs an AcoustID client. requestsPerSec must respect the
// documented quota; config validation rejects values above 3.
func New(baseURL, apiKey string, requestsPerSec float64) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("acoustid base URL required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("acoustid api key required")
	}
	if requestsPerSec <= 0 {
		requestsPerSec = 3
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), 1),
	}, nil
}

// Lookup returns candidate recordings for the fingerprint, best score first.
// An empty slice means the service knows nothing about this fingerprint.
func (c *Client) Lookup(ctx context.Context, fingerprint string, durationSec float64) ([]Candidate, error) {
	if strings.TrimSpace(fingerprint) == "" {
		return nil, errors.New("fingerprint required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("client", c.apiKey)
	form.Set("fingerprint", fingerprint)
	form.Set("meta", "recordings")
	if durationSec > 0 {
		form.Set("duration", strconv.Itoa(int(durationSec)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/lookup",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "identify", "acoustid lookup", "", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, services.Wrap(services.ErrTransient, "identify", "acoustid lookup",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrExternalTool, "identify", "acoustid lookup",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "identify", "decode acoustid response", "", err)
	}
	if payload.Status != "ok" {
		return nil, services.Wrap(services.ErrExternalTool, "identify", "acoustid lookup",
			fmt.Sprintf("status %q: %s", payload.Status, payload.Error.Message), nil)
	}

	return flattenCandidates(payload), nil
}

type lookupResponse struct {
	Status string `json:"status"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Results []struct {
		Score      float64 `json:"score"`
		Recordings []struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"recordings"`
	} `json:"results"`
}

func flattenCandidates(payload lookupResponse) []Candidate {
	var candidates []Candidate
	for _, result := range payload.Results {
		for _, recording := range result.Recordings {
			candidate := Candidate{
				RecordingID: recording.ID,
				Title:       recording.Title,
				Score:       result.Score,
			}
			if len(recording.Artists) > 0 {
				names := make([]string, 0, len(recording.Artists))
				for _, artist := range recording.Artists {
					if artist.Name != "" {
						names = append(names, artist.Name)
					}
				}
				candidate.Artist = strings.Join(names, "; ")
			}
			if candidate.RecordingID == "" {
				continue
			}
			candidates = append(candidates, candidate)
		}
	}
	// Results arrive best-first from the service, but recordings within a
	// result share its score; a stable re-sort keeps ranking deterministic.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].Score > candidates[j-1].Score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	return candidates
}
