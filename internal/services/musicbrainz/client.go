// Package musicbrainz fetches secondary recording metadata (genre, album,
// release year) from the MusicBrainz web service.
//
// MusicBrainz requires an identifying User-Agent and at most one request per
// second; both are enforced here rather than trusted to callers.
package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tonearm/internal/services"
)

// RecordingDetail carries the optional enrichment fields for a recording.
type RecordingDetail struct {
	Genre string
	Album string
	Year  int
}

// Client talks to the MusicBrainz recording endpoint.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// New constructs a MusicBrainz client.
func New(baseURL, userAgent string, requestsPerSec float64) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("musicbrainz base URL required")
	}
	if strings.TrimSpace(userAgent) == "" {
		return nil, errors.New("musicbrainz user agent required")
	}
	if requestsPerSec <= 0 {
		requestsPerSec = 1
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: 15 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSec), 1),
	}, nil
}

// Recording fetches genre, album, and release year for a recording ID.
// Missing fields stay zero-valued; only transport and decode failures error.
func (c *Client) Recording(ctx context.Context, recordingID string) (RecordingDetail, error) {
	if strings.TrimSpace(recordingID) == "" {
		return RecordingDetail{}, errors.New("recording id required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return RecordingDetail{}, err
	}

	endpoint := fmt.Sprintf("%s/recording/%s?inc=releases+genres&fmt=json", c.baseURL, recordingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RecordingDetail{}, fmt.Errorf("build recording request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return RecordingDetail{}, services.Wrap(services.ErrTransient, "identify", "musicbrainz recording", "", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return RecordingDetail{}, services.Wrap(services.ErrNotFound, "identify", "musicbrainz recording", recordingID, nil)
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return RecordingDetail{}, services.Wrap(services.ErrTransient, "identify", "musicbrainz recording",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return RecordingDetail{}, services.Wrap(services.ErrExternalTool, "identify", "musicbrainz recording",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var payload struct {
		FirstReleaseDate string `json:"first-release-date"`
		Genres           []struct {
			Name string `json:"name"`
		} `json:"genres"`
		Releases []struct {
			Title string `json:"title"`
			Date  string `json:"date"`
		} `json:"releases"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return RecordingDetail{}, services.Wrap(services.ErrExternalTool, "identify", "decode musicbrainz response", "", err)
	}

	detail := RecordingDetail{Year: parseYear(payload.FirstReleaseDate)}
	if len(payload.Genres) > 0 {
		detail.Genre = payload.Genres[0].Name
	}
	if len(payload.Releases) > 0 {
		detail.Album = payload.Releases[0].Title
		if detail.Year == 0 {
			detail.Year = parseYear(payload.Releases[0].Date)
		}
	}
	return detail, nil
}

func parseYear(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	var year int
	if _, err := fmt.Sscanf(date[:4], "%d", &year); err != nil {
		return 0
	}
	return year
}
