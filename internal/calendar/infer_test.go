package calendar

import (
	"testing"
	"time"
)

func offered() []Slot {
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	return []Slot{
		{Start: day.Add(10 * time.Hour), Duration: 30 * time.Minute, Display: "Sunday at 10:00 (18/10)"},
		{Start: day.Add(14 * time.Hour), Duration: 30 * time.Minute, Display: "Sunday at 14:00 (18/10)"},
	}
}

func TestInferSelection(t *testing.T) {
	cases := []struct {
		name       string
		raw        string
		normalized string
		want       int
		ok         bool
	}{
		{"first ordinal", "", "The first one please", 0, true},
		{"second ordinal", "", "I'll take the second", 1, true},
		{"short ordinal", "", "2nd works", 1, true},
		{"hebrew ordinal in raw", "האפשרות השנייה", "[caller speech - translation unavailable]", 1, true},
		{"hour ten", "", "10 works for me", 0, true},
		{"hour with minutes", "", "let's do 14:00", 1, true},
		{"two pm", "", "how about 2 pm", 1, true},
		{"two in the afternoon", "", "2 in the afternoon is fine", 1, true},
		{"word hour", "", "ten o'clock", 0, true},
		{"raw numeric", "בעשר", "", -1, false},
		{"raw digits", "ב 14", "at that time", 1, true},
		{"morning", "", "morning is better", 0, true},
		{"afternoon", "", "afternoon suits me", 1, true},
		{"hebrew morning", "בבוקר", "", 0, true},
		{"ordinal beats hour", "", "the first, not 14", 0, true},
		{"hour beats qualifier", "", "in the morning, 14:00", 1, true},
		{"both qualifiers prefer morning", "", "morning or afternoon, whatever", 0, true},
		{"no cue", "", "yes sounds good", -1, false},
		{"unmatched hour", "", "can we do 9?", -1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := InferSelection(offered(), tc.raw, tc.normalized)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("got (%d,%v) want (%d,%v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestInferSelection_NoSlots(t *testing.T) {
	if _, ok := InferSelection(nil, "first", "first"); ok {
		t.Fatalf("expected no match without slots")
	}
}

func TestInferSelection_SecondOrdinalOutOfRange(t *testing.T) {
	one := offered()[:1]
	if _, ok := InferSelection(one, "", "the second one"); ok {
		t.Fatalf("expected no match for ordinal beyond offered slots")
	}
}

func TestInferSelection_FallsBackToDisplayHour(t *testing.T) {
	slots := []Slot{{Display: "Tomorrow at 10:00 (17/10)"}, {Display: "Tomorrow at 14:00 (17/10)"}}
	got, ok := InferSelection(slots, "", "14 please")
	if !ok || got != 1 {
		t.Fatalf("got (%d,%v)", got, ok)
	}
}
