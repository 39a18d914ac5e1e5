// Package merge implements the segment normalization algorithm that
// turns the transcriber's per-chunk partials into one ordered,
// non-overlapping, duplicate-free transcript, plus the final.txt/
// final.json/final.vtt writers. The batched-concat discipline this
// generalizes from is the teacher's internal/chunk merge step: many
// independently produced pieces reduced to one ordered artifact.
package merge

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Segment is one timestamped span of transcript text in absolute media time.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Final is the shape written to final.json.
type Final struct {
	Segments []Segment `json:"segments"`
	Text     string    `json:"text"`
}

// Normalize applies the merge algorithm: filter empty/invalid segments,
// sort by (start, end), then walk in order trimming overlaps and
// dropping adjacent case-insensitive duplicates.
//
// The overlap/duplicate step for each candidate c against the running
// output's last entry p:
//   - if c.start < p.end (overlap): when c.start > p.start, shrink p.end
//     to c.start, and if that empties p, pop it; then if
//     lower(c.text) == lower(p.text), drop c.
//   - every c not dropped as a duplicate is appended.
//
// Trimming always happens before the duplicate check, even when p was
// popped for becoming empty: the duplicate comparison uses the p that
// was current at the start of this step.
func Normalize(segments []Segment) []Segment {
	filtered := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if strings.TrimSpace(s.Text) == "" || s.End <= s.Start {
			continue
		}
		filtered = append(filtered, s)
	}
	sortByStartEnd(filtered)

	var out []Segment
	for _, c := range filtered {
		if len(out) == 0 {
			out = append(out, c)
			continue
		}
		p := &out[len(out)-1]
		if c.Start < p.End {
			sameText := strings.EqualFold(c.Text, p.Text)
			if c.Start > p.Start {
				p.End = c.Start
				if p.End <= p.Start {
					out = out[:len(out)-1]
				}
			}
			if sameText {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func sortByStartEnd(segs []Segment) {
	for i := 1; i < len(segs); i++ {
		for j := i; j > 0 && less(segs[j], segs[j-1]); j-- {
			segs[j], segs[j-1] = segs[j-1], segs[j]
		}
	}
}

func less(a, b Segment) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.End < b.End
}

// Text concatenates segment texts separated by a single space, the
// shape written to final.txt.
func Text(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// FinalJSON renders the pretty-printed final.json payload.
func FinalJSON(segments []Segment) ([]byte, error) {
	f := Final{Segments: segments, Text: Text(segments)}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("merge: marshal final.json: %w", err)
	}
	return data, nil
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm, rounded to the
// nearest millisecond and clamped at 0.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(math.Round(seconds * 1000))
	ms := totalMs % 1000
	totalSec := totalMs / 1000
	s := totalSec % 60
	totalMin := totalSec / 60
	m := totalMin % 60
	h := totalMin / 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// VTT renders WebVTT text for segments: the WEBVTT header followed by
// one numbered cue per segment.
func VTT(segments []Segment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, s := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(s.Start), FormatTimestamp(s.End), s.Text)
	}
	return b.String()
}
