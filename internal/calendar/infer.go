package calendar

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reFirst       = regexp.MustCompile(`(?i)\b(1st|first)\b`)
	reSecond      = regexp.MustCompile(`(?i)\b(2nd|second)\b`)
	reHour        = regexp.MustCompile(`(?i)\b(\d{1,2})(?::([0-5]\d))?\s*(a\.?m\.?|p\.?m\.?)?(?:\b|$)`)
	reWordHour    = regexp.MustCompile(`(?i)\b(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\b(?:\s*(a\.?m\.?|p\.?m\.?|o'?clock))?`)
	reDisplayHour = regexp.MustCompile(`\b(\d{1,2}):\d{2}\b`)
)

var wordHours = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

var (
	firstWords     = []string{"הראשון", "הראשונה"}
	secondWords    = []string{"השני", "השנייה", "השניה"}
	morningWords   = []string{"morning", "בבוקר"}
	afternoonWords = []string{"afternoon", "evening", "אחר הצהריים", "אחרי הצהריים", "אחה\"צ"}
)

// InferSelection maps a free-text reply back to one of the offered slots.
// Cues are tried in order: ordinal words, an hour that equals a slot's
// start hour, then morning/afternoon, with morning winning when both
// appear. The normalized (internal language)
// text is consulted before the raw transcript at each step. ok is false
// when nothing matches.
func InferSelection(slots []Slot, raw, normalized string) (index int, ok bool) {
	if len(slots) == 0 {
		return -1, false
	}
	texts := []string{normalized, raw}

	for _, t := range texts {
		if i, found := ordinal(t); found && i < len(slots) {
			return i, true
		}
	}

	for _, t := range texts {
		for _, h := range mentionedHours(t) {
			if i := slotWithHour(slots, h); i >= 0 {
				return i, true
			}
		}
	}

	all := strings.ToLower(normalized + " " + raw)
	morning := containsAny(all, morningWords)
	afternoon := !morning && containsAny(all, afternoonWords)
	if !morning && !afternoon {
		return -1, false
	}
	best := -1
	for i, s := range slots {
		h := slotHour(s)
		if h < 0 {
			continue
		}
		if best < 0 ||
			(morning && h < slotHour(slots[best])) ||
			(afternoon && h > slotHour(slots[best])) {
			best = i
		}
	}
	if best < 0 {
		return -1, false
	}
	return best, true
}

func ordinal(text string) (int, bool) {
	switch {
	case reFirst.MatchString(text) || containsAny(text, firstWords):
		return 0, true
	case reSecond.MatchString(text) || containsAny(text, secondWords):
		return 1, true
	}
	return -1, false
}

// mentionedHours returns 24h hours referenced in text. A 1-7 hour followed
// by pm, or in a text mentioning the afternoon, is shifted by twelve.
func mentionedHours(text string) []int {
	lower := strings.ToLower(text)
	pmContext := containsAny(lower, afternoonWords)

	var out []int
	add := func(h int, suffix string) {
		suffix = strings.ReplaceAll(strings.ToLower(suffix), ".", "")
		switch {
		case suffix == "pm" && h < 12:
			h += 12
		case suffix == "am" && h == 12:
			h = 0
		case suffix == "" && pmContext && h >= 1 && h <= 7:
			h += 12
		}
		if h >= 0 && h <= 23 {
			out = append(out, h)
		}
	}

	for _, m := range reHour.FindAllStringSubmatch(lower, -1) {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		add(h, m[3])
	}
	for _, m := range reWordHour.FindAllStringSubmatch(lower, -1) {
		suffix := m[2]
		if strings.Contains(suffix, "clock") {
			suffix = ""
		}
		add(wordHours[m[1]], suffix)
	}
	return out
}

func slotWithHour(slots []Slot, h int) int {
	for i, s := range slots {
		if slotHour(s) == h {
			return i
		}
	}
	return -1
}

// slotHour reads the hour from Start, or from the display text when the
// start is unknown.
func slotHour(s Slot) int {
	if !s.Start.IsZero() {
		return s.Start.Hour()
	}
	if m := reDisplayHour.FindStringSubmatch(s.Display); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil {
			return h
		}
	}
	return -1
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
