// Package earthdata acquires MERRA-2 temperature data from the NASA
// Earthdata services: URS for authentication, CMR for granule metadata, and
// the Giovanni time series endpoint for the hourly values themselves.
package earthdata

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"temperature-forecast/internal/series"
	"temperature-forecast/pkg/logging"
)

// boundingBoxMargin widens a point into the search box CMR expects, in
// degrees on each side.
const boundingBoxMargin = 0.5

// Config carries the service endpoints and HTTP behavior of a session.
type Config struct {
	TokenURL   string
	SearchURL  string
	SeriesURL  string
	Timeout    time.Duration
	MaxRetries int
}

// AuthError indicates the archive rejected the supplied credentials.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("earthdata authentication failed with status %d", e.StatusCode)
}

// Session is an authenticated handle on the Earthdata services. All archive
// access goes through a session; there is no package-level credential state.
type Session struct {
	cfg    Config
	client *http.Client
	token  string
	logger *logging.StructuredLogger
}

// NewSession logs in with the given credentials and returns an authenticated
// session. The credentials themselves are not retained.
func NewSession(ctx context.Context, cfg Config, creds Credentials, logger *logging.StructuredLogger) (*Session, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, errors.New("username and password are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	s := &Session{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}

	token, err := s.login(ctx, creds)
	if err != nil {
		return nil, err
	}
	s.token = token

	if s.logger != nil {
		s.logger.Info(ctx, "[EARTHDATA_LOGIN] Session established", logging.Fields{
			"username": creds.Username,
		})
	}

	return s, nil
}

// login obtains a bearer token from URS using HTTP basic authentication.
func (s *Session) login(ctx context.Context, creds Credentials) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.SetBasicAuth(creds.Username, creds.Password)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &AuthError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token endpoint returned an empty token")
	}

	return tok.AccessToken, nil
}

// SearchGranules queries CMR for archive granules covering the location in
// the given date range.
func (s *Session) SearchGranules(ctx context.Context, coords Coordinates, from, to time.Time) ([]Granule, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("invalid range: %s is not before %s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	params := url.Values{}
	params.Set("short_name", collectionShortName)
	params.Set("version", collectionVersion)
	params.Set("temporal", fmt.Sprintf("%s,%s",
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339)))
	params.Set("bounding_box", boundingBox(coords))
	params.Set("page_size", "2000")

	body, err := s.get(ctx, s.cfg.SearchURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("searching granules: %w", err)
	}

	var feed granuleFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decoding granule feed: %w", err)
	}

	granules := make([]Granule, len(feed.Feed.Entry))
	for i, entry := range feed.Feed.Entry {
		granules[i] = entry.toGranule()
	}

	if s.logger != nil {
		s.logger.Debug(ctx, "[EARTHDATA_SEARCH] Granule search complete", logging.Fields{
			"granules": len(granules),
			"from":     from.Format("2006-01-02"),
			"to":       to.Format("2006-01-02"),
		})
	}

	return granules, nil
}

// FetchSeries retrieves the hourly 2-metre temperature readings, in Kelvin,
// for the location over the given date range.
func (s *Session) FetchSeries(ctx context.Context, coords Coordinates, from, to time.Time) ([]series.Sample, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("invalid range: %s is not before %s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	params := url.Values{}
	params.Set("data", temperatureVariable)
	params.Set("location", fmt.Sprintf("[%g,%g]", coords.Latitude, coords.Longitude))
	params.Set("time", fmt.Sprintf("%s/%s",
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339)))

	body, err := s.get(ctx, s.cfg.SeriesURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetching series: %w", err)
	}

	samples, err := parseSeriesCSV(body)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug(ctx, "[EARTHDATA_FETCH] Series fetch complete", logging.Fields{
			"samples": len(samples),
			"from":    from.Format("2006-01-02"),
			"to":      to.Format("2006-01-02"),
		})
	}

	return samples, nil
}

// get performs an authenticated GET with bounded retries on server errors.
func (s *Session) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.token)

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, fmt.Errorf("reading response body: %w", readErr)
			}
			return body, nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &AuthError{StatusCode: resp.StatusCode}
		case resp.StatusCode >= 500:
			// Transient server-side failure, retry.
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			if s.logger != nil {
				s.logger.Warn(ctx, "[EARTHDATA_RETRY] Retrying after server error", logging.Fields{
					"status":  resp.StatusCode,
					"attempt": attempt + 1,
				})
			}
			continue
		default:
			return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", s.cfg.MaxRetries+1, lastErr)
}

// boundingBox formats the west,south,east,north box around a point.
func boundingBox(c Coordinates) string {
	return fmt.Sprintf("%g,%g,%g,%g",
		c.Longitude-boundingBoxMargin,
		c.Latitude-boundingBoxMargin,
		c.Longitude+boundingBoxMargin,
		c.Latitude+boundingBoxMargin)
}

// seriesTimeLayouts are the timestamp formats seen in series CSV responses.
var seriesTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseSeriesCSV extracts timestamped Kelvin readings from a time series CSV
// body. Metadata and header lines before the data block are skipped.
func parseSeriesCSV(body []byte) ([]series.Sample, error) {
	var samples []series.Sample

	scanner := bufio.NewScanner(strings.NewReader(string(body)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			continue
		}

		ts, ok := parseSeriesTime(strings.TrimSpace(fields[0]))
		if !ok {
			continue
		}

		kelvin, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing value for %s: %w", fields[0], err)
		}

		samples = append(samples, series.Sample{Time: ts, Kelvin: kelvin})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading series response: %w", err)
	}

	if len(samples) == 0 {
		return nil, errors.New("series response contained no data rows")
	}

	return samples, nil
}

func parseSeriesTime(raw string) (time.Time, bool) {
	for _, layout := range seriesTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
