// Package segmenter turns a silence-detection transcript or a VAD
// speech-interval list into a chunk plan: an ordered list of
// (start, end) windows with no window longer than max_chunk_seconds.
// The split algorithm generalizes the teacher's
// FFmpegSplitter.calculateSplitPoints target-duration splitting into
// the silence/VAD-interval-driven algorithm the pipeline needs, and
// borrows the "cap long interval, split deterministically from the
// left edge" shape from chunk.ValidateScenes's max-length check.
package segmenter

import (
	"regexp"
	"sort"
	"strconv"
)

// Interval is a half-open time span in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Entry is one planned chunk: a 1-based index and its absolute time span.
type Entry struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

var silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
var silenceEndRe = regexp.MustCompile(`silence_end:\s*(-?[\d.]+)`)

// ParseSilenceDetect parses ffmpeg's silencedetect stderr text into an
// ordered list of silence intervals, matching unpaired silence_start
// lines (no following silence_end before EOF) by discarding them.
func ParseSilenceDetect(text string) []Interval {
	starts := silenceStartRe.FindAllStringSubmatch(text, -1)
	ends := silenceEndRe.FindAllStringSubmatch(text, -1)

	n := len(starts)
	if len(ends) < n {
		n = len(ends)
	}
	intervals := make([]Interval, 0, n)
	for i := 0; i < n; i++ {
		s, errS := strconv.ParseFloat(starts[i][1], 64)
		e, errE := strconv.ParseFloat(ends[i][1], 64)
		if errS != nil || errE != nil {
			continue
		}
		intervals = append(intervals, Interval{Start: s, End: e})
	}
	return intervals
}

// SpeechFromSilences builds speech segments from silence intervals
// over [0, duration), per spec §4.3 step 3 (silence mode):
// initialize cur=0; for each (s,e) in order, if s>cur emit (cur,s), set
// cur=max(cur,e); after the last, if duration>cur emit (cur,duration).
// If the result is empty and duration>0, emit (0,duration).
func SpeechFromSilences(silences []Interval, duration float64) []Interval {
	cur := 0.0
	var speech []Interval
	for _, sil := range silences {
		if sil.Start > cur {
			speech = append(speech, Interval{Start: cur, End: sil.Start})
		}
		if sil.End > cur {
			cur = sil.End
		}
	}
	if duration > cur {
		speech = append(speech, Interval{Start: cur, End: duration})
	}
	if len(speech) == 0 && duration > 0 {
		speech = append(speech, Interval{Start: 0, End: duration})
	}
	return speech
}

// SpeechFromVAD converts VAD speech intervals given in sample frames at
// a 16 kHz rate into second-denominated intervals, dropping empties,
// and falling back to one full-duration span when VAD found nothing.
func SpeechFromVAD(framesIntervals [][2]int, sampleRate int, duration float64) []Interval {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	var speech []Interval
	for _, fi := range framesIntervals {
		s := float64(fi[0]) / float64(sampleRate)
		e := float64(fi[1]) / float64(sampleRate)
		if e > s {
			speech = append(speech, Interval{Start: s, End: e})
		}
	}
	if len(speech) == 0 {
		speech = append(speech, Interval{Start: 0, End: duration})
	}
	return speech
}

// CapLongIntervals splits every interval longer than maxChunkSeconds
// into consecutive windows of exactly maxChunkSeconds, with the last
// window (<= cap) absorbing the remainder. Splitting is always
// performed from the left edge, a deterministic tie-break.
func CapLongIntervals(intervals []Interval, maxChunkSeconds float64) []Interval {
	if maxChunkSeconds <= 0 {
		return intervals
	}
	var out []Interval
	for _, iv := range intervals {
		start := iv.Start
		for iv.End-start > maxChunkSeconds {
			out = append(out, Interval{Start: start, End: start + maxChunkSeconds})
			start += maxChunkSeconds
		}
		if iv.End > start {
			out = append(out, Interval{Start: start, End: iv.End})
		}
	}
	return out
}

// BuildPlan assigns 1-based indices in order to intervals, dropping any
// with End<=Start.
func BuildPlan(intervals []Interval) []Entry {
	plan := make([]Entry, 0, len(intervals))
	idx := 1
	for _, iv := range intervals {
		if iv.End <= iv.Start {
			continue
		}
		plan = append(plan, Entry{Index: idx, Start: iv.Start, End: iv.End})
		idx++
	}
	return plan
}

// PlanFromSilenceDetect runs the full silence-mode planning pipeline:
// parse, build speech segments, cap long intervals, assign indices.
func PlanFromSilenceDetect(silenceDetectText string, duration, maxChunkSeconds float64) []Entry {
	silences := ParseSilenceDetect(silenceDetectText)
	sort.Slice(silences, func(i, j int) bool { return silences[i].Start < silences[j].Start })
	speech := SpeechFromSilences(silences, duration)
	capped := CapLongIntervals(speech, maxChunkSeconds)
	return BuildPlan(capped)
}

// PlanFromVAD runs the full VAD-mode planning pipeline.
func PlanFromVAD(framesIntervals [][2]int, sampleRate int, duration, maxChunkSeconds float64) []Entry {
	speech := SpeechFromVAD(framesIntervals, sampleRate, duration)
	capped := CapLongIntervals(speech, maxChunkSeconds)
	return BuildPlan(capped)
}
