package segmenter

import "testing"

func TestPlanFromSilenceDetect_S1(t *testing.T) {
	text := "silence_start: 1.0\n" +
		"silence_end: 2.0 | silence_duration: 1.0\n" +
		"silence_start: 4.0\n" +
		"silence_end: 4.5 | silence_duration: 0.5\n"

	plan := PlanFromSilenceDetect(text, 6.0, 2)

	want := []Entry{
		{Index: 1, Start: 0.0, End: 1.0},
		{Index: 2, Start: 2.0, End: 4.0},
		{Index: 3, Start: 4.5, End: 6.0},
	}
	assertPlanEqual(t, plan, want)
}

func TestPlanFromSilenceDetect_NoSilences_LongSegmentSplit_S2(t *testing.T) {
	plan := PlanFromSilenceDetect("", 5.0, 2)

	want := []Entry{
		{Index: 1, Start: 0, End: 2},
		{Index: 2, Start: 2, End: 4},
		{Index: 3, Start: 4, End: 5},
	}
	assertPlanEqual(t, plan, want)
}

func TestCapLongIntervals_ExactMultipleOfCap(t *testing.T) {
	got := CapLongIntervals([]Interval{{Start: 0, End: 4}}, 2)
	want := []Interval{{Start: 0, End: 2}, {Start: 2, End: 4}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("interval %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSpeechFromSilences_NoSilencesYieldsFullSpan(t *testing.T) {
	// With no silences, cur stays 0 and the trailing (cur, duration) span
	// covers the whole clip. (A single silence spanning the whole clip
	// instead leaves the result empty and takes the (0, duration)
	// fallback.) This test checks the empty-input case.
	got := SpeechFromSilences(nil, 3.0)
	want := []Interval{{Start: 0, End: 3.0}}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSpeechFromVAD_FallsBackWhenEmpty(t *testing.T) {
	got := SpeechFromVAD(nil, 16000, 4.0)
	if len(got) != 1 || got[0] != (Interval{Start: 0, End: 4.0}) {
		t.Errorf("got %v, want single full-duration span", got)
	}
}

func TestSpeechFromVAD_ConvertsFramesToSeconds(t *testing.T) {
	got := SpeechFromVAD([][2]int{{16000, 32000}}, 16000, 4.0)
	want := Interval{Start: 1.0, End: 2.0}
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBuildPlan_DropsEmptyIntervals(t *testing.T) {
	plan := BuildPlan([]Interval{{Start: 1, End: 1}, {Start: 0, End: 2}})
	if len(plan) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(plan))
	}
	if plan[0].Index != 1 || plan[0].Start != 0 || plan[0].End != 2 {
		t.Errorf("unexpected entry: %+v", plan[0])
	}
}

func assertPlanEqual(t *testing.T, got, want []Entry) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("plan length = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
