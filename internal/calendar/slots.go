package calendar

import (
	"fmt"
	"time"
)

// SlotSource generates a fixed set of candidate times on the next business
// day. The output depends only on Now, so two calls in the same second
// return identical starts.
type SlotSource struct {
	Now      func() time.Time
	Location *time.Location
	Hours    []int
	Duration time.Duration
	Weekend  []time.Weekday
	Max      int
}

// DefaultSlotSource offers 10:00 and 14:00, thirty minutes each, skipping
// Friday and Saturday.
func DefaultSlotSource(loc *time.Location) *SlotSource {
	if loc == nil {
		loc = time.UTC
	}
	return &SlotSource{
		Now:      time.Now,
		Location: loc,
		Hours:    []int{10, 14},
		Duration: 30 * time.Minute,
		Weekend:  []time.Weekday{time.Friday, time.Saturday},
		Max:      2,
	}
}

func (s *SlotSource) AvailableSlots() []Slot {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	today := now().In(loc)
	day := s.nextBusinessDay(today)

	max := s.Max
	if max <= 0 || max > len(s.Hours) {
		max = len(s.Hours)
	}
	out := make([]Slot, 0, max)
	for _, h := range s.Hours[:max] {
		start := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, loc)
		out = append(out, Slot{
			Start:    start,
			Duration: s.Duration,
			Display:  displayFor(today, start),
		})
	}
	return out
}

func (s *SlotSource) nextBusinessDay(from time.Time) time.Time {
	d := from.AddDate(0, 0, 1)
	for i := 0; i < 7 && s.isWeekend(d.Weekday()); i++ {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func (s *SlotSource) isWeekend(w time.Weekday) bool {
	for _, x := range s.Weekend {
		if x == w {
			return true
		}
	}
	return false
}

// displayFor renders "Tomorrow at 10:00 (17/10)" or "Sunday at 14:00 (19/10)".
func displayFor(today, start time.Time) string {
	day := start.Weekday().String()
	y1, m1, d1 := today.AddDate(0, 0, 1).Date()
	y2, m2, d2 := start.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		day = "Tomorrow"
	}
	return fmt.Sprintf("%s at %s (%s)", day, start.Format("15:04"), start.Format("02/01"))
}
