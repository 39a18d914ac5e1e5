// Package asr defines the Transcriber port used by the transcriber
// stage and an HTTP adapter against an external ASR engine. The
// request/response/error shape follows the teacher's runpod.Client
// port split and nnikolov3-tts-service's tts.HTTPClient request-builder
// discipline, generalized from speech synthesis to speech recognition.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// RawSegment is one ASR-reported span in chunk-local time.
type RawSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcriber runs ASR over a chunk WAV file and returns chunk-local segments.
type Transcriber interface {
	Transcribe(ctx context.Context, chunkWAVPath, language string) ([]RawSegment, error)
}

// Static errors for the HTTP adapter.
var (
	ErrEmptyAudio       = errors.New("asr: chunk audio file is empty")
	ErrServiceNonOK     = errors.New("asr: engine returned non-OK status")
	ErrUnexpectedFormat = errors.New("asr: engine returned malformed response")
)

// HTTPClient transcribes chunk audio against an external faster-whisper
// style HTTP engine.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient against baseURL with the given
// per-request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type transcribeResponse struct {
	Segments []RawSegment `json:"segments"`
	Error    string       `json:"error,omitempty"`
}

// Transcribe uploads the chunk WAV and language to the engine's
// /v1/transcribe endpoint and returns the raw chunk-local segments.
func (c *HTTPClient) Transcribe(ctx context.Context, chunkWAVPath, language string) ([]RawSegment, error) {
	audio, err := os.ReadFile(chunkWAVPath) // #nosec G304 - chunkWAVPath is produced by the splitter
	if err != nil {
		return nil, fmt.Errorf("asr: read chunk: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	url := c.baseURL + "/v1/transcribe?language=" + language
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("asr: build request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asr: request to %s: %w", c.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %s: %s", ErrServiceNonOK, resp.Status, string(body))
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedFormat, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("asr: engine error: %s", out.Error)
	}
	return out.Segments, nil
}

var _ Transcriber = (*HTTPClient)(nil)

// PooledModel holds up to size lazily built Transcriber instances in a
// buffered channel. Each call borrows one instance for its duration and
// puts it back afterwards, so an instance is never used by two calls at
// once. Instances are not bound to a goroutine: any free instance may
// serve any caller.
type PooledModel struct {
	factory func() (Transcriber, error)
	pool    chan Transcriber
}

// NewPooledModel creates a PooledModel that lazily builds up to size
// Transcriber instances via factory, reusing them across calls.
func NewPooledModel(size int, factory func() (Transcriber, error)) *PooledModel {
	if size <= 0 {
		size = 1
	}
	p := &PooledModel{factory: factory, pool: make(chan Transcriber, size)}
	for i := 0; i < size; i++ {
		p.pool <- nil
	}
	return p
}

// Transcribe borrows a pooled Transcriber (initializing it on first
// use), runs it, and returns it to the pool.
func (p *PooledModel) Transcribe(ctx context.Context, chunkWAVPath, language string) ([]RawSegment, error) {
	model := <-p.pool
	if model == nil {
		built, err := p.factory()
		if err != nil {
			p.pool <- nil
			return nil, fmt.Errorf("asr: init pooled model: %w", err)
		}
		model = built
	}
	defer func() { p.pool <- model }()
	return model.Transcribe(ctx, chunkWAVPath, language)
}

var _ Transcriber = (*PooledModel)(nil)

// NormalizeText strips non-ASCII diacritics down to their ASCII-7 base
// letter via NFKD decomposition, collapses runs of whitespace to a
// single space, drops control characters, and trims the result.
func NormalizeText(s string) string {
	decomposed := norm.NFKD.String(s)

	var b strings.Builder
	lastWasSpace := false
	for _, r := range decomposed {
		if unicode.IsSpace(r) {
			if lastWasSpace {
				continue
			}
			lastWasSpace = true
			b.WriteByte(' ')
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if unicode.Is(unicode.Mn, r) {
			// Combining mark split off by NFKD decomposition: drop it,
			// leaving the preceding base letter already written.
			continue
		}
		if r > unicode.MaxASCII {
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// ShiftAndNormalize converts chunk-local raw segments to absolute-time,
// normalized segments, dropping any whose text is empty after
// normalization or whose end doesn't strictly exceed its start.
func ShiftAndNormalize(raw []RawSegment, chunkStart float64) []Segment {
	out := make([]Segment, 0, len(raw))
	for _, r := range raw {
		text := NormalizeText(r.Text)
		start := r.Start + chunkStart
		end := r.End + chunkStart
		if text == "" || end <= start {
			continue
		}
		out = append(out, Segment{Start: start, End: end, Text: text})
	}
	return out
}

// Segment is an absolute-time, normalized transcript span.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
