package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

var (
	ErrNotConfigured = errors.New("transcribe: recording credentials not configured")
	ErrNoMedia       = errors.New("transcribe: recording media unavailable")
)

// maxMediaBytes bounds one downloaded recording.
const maxMediaBytes = 25 << 20

var mediaTypes = []struct {
	ext, contentType string
}{
	{".wav", "audio/wav"},
	{".mp3", "audio/mpeg"},
	{".m4a", "audio/mp4"},
}

// Media is a downloaded recording.
type Media struct {
	Data        []byte
	URL         string
	Filename    string
	ContentType string
	// Duration is known for WAV media only.
	Duration time.Duration
}

// Fetcher downloads recordings from the telephony provider with the
// account's basic-auth credentials.
type Fetcher struct {
	HTTP       *http.Client
	AccountSID string
	AuthToken  string
}

func NewFetcher(accountSID, authToken string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{HTTP: &http.Client{Timeout: timeout}, AccountSID: accountSID, AuthToken: authToken}
}

func (f *Fetcher) Ready() bool {
	return f != nil && f.AccountSID != "" && f.AuthToken != ""
}

// candidateURLs lists media URLs to try. Recording URLs usually arrive
// without an extension; the provider serves each format under its suffix.
func candidateURLs(recordingURL string) []string {
	u := strings.TrimSpace(recordingURL)
	if u == "" {
		return nil
	}
	lower := strings.ToLower(u)
	for _, m := range mediaTypes {
		if strings.HasSuffix(lower, m.ext) {
			return []string{u}
		}
	}
	out := make([]string, 0, len(mediaTypes))
	for _, m := range mediaTypes {
		out = append(out, u+m.ext)
	}
	return out
}

// Fetch returns the first candidate that downloads as usable audio. WAV
// bodies must parse and carry a non-zero duration.
func (f *Fetcher) Fetch(ctx context.Context, recordingURL string) (Media, error) {
	if !f.Ready() {
		return Media{}, ErrNotConfigured
	}
	candidates := candidateURLs(recordingURL)
	if len(candidates) == 0 {
		return Media{}, fmt.Errorf("%w: empty recording url", ErrNoMedia)
	}

	var lastErr error
	for _, u := range candidates {
		data, err := f.get(ctx, u)
		if err != nil {
			lastErr = err
			continue
		}
		m := describe(u, data)
		if m.ContentType == "audio/wav" {
			d, err := wavDuration(data)
			if err != nil {
				lastErr = fmt.Errorf("%s: %w", u, err)
				continue
			}
			m.Duration = d
		}
		return m, nil
	}
	return Media{}, fmt.Errorf("%w: %v", ErrNoMedia, lastErr)
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(f.AccountSID, f.AuthToken)
	req.Header.Set("Accept", "audio/*;q=0.9,*/*;q=0.1")

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%s: status %d", u, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: empty body", u)
	}
	return data, nil
}

func describe(u string, data []byte) Media {
	m := Media{Data: data, URL: u, Filename: "recording.wav", ContentType: "audio/wav"}
	lower := strings.ToLower(u)
	for _, t := range mediaTypes {
		if strings.HasSuffix(lower, t.ext) {
			m.Filename = "recording" + t.ext
			m.ContentType = t.contentType
		}
	}
	return m
}

func wavDuration(data []byte) (time.Duration, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return 0, errors.New("invalid wav file")
	}
	dur, err := d.Duration()
	if err != nil {
		return 0, fmt.Errorf("wav duration: %w", err)
	}
	if dur <= 0 {
		return 0, errors.New("wav has no audio")
	}
	return dur, nil
}
