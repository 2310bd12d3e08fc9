package booking

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Window is an inclusive wall-clock slot window.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseTimeRange parses "08:00-11:00" into a Window.
func ParseTimeRange(s string) (Window, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return Window{}, fmt.Errorf("invalid time range %q: expected HH:MM-HH:MM", s)
	}
	start, err := time.Parse("15:04", strings.TrimSpace(startStr))
	if err != nil {
		return Window{}, fmt.Errorf("invalid range start %q: %w", startStr, err)
	}
	end, err := time.Parse("15:04", strings.TrimSpace(endStr))
	if err != nil {
		return Window{}, fmt.Errorf("invalid range end %q: %w", endStr, err)
	}
	if end.Before(start) {
		return Window{}, fmt.Errorf("invalid time range %q: end before start", s)
	}
	return Window{Start: start, End: end}, nil
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return w.Start.Format("15:04") + "-" + w.End.Format("15:04")
}

// ParseSlotTime parses a tee-time label. The widget shows "3:04 PM" on
// most themes and 24-hour "15:04" on a few.
func ParseSlotTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"3:04 PM", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable slot time %q", s)
}

// Slot is one bookable tee time as scraped from the page.
type Slot struct {
	Time time.Time
	// Index addresses the slot's container among the scraped slots.
	Index int
}

// ChooseSlot filters slots to the window and picks the middle one by
// time. Everyone races for the first slot at release; the middle of
// the acceptable window books more reliably under contention.
func ChooseSlot(slots []Slot, window Window) (Slot, bool) {
	inWindow := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if window.Contains(s.Time) {
			inWindow = append(inWindow, s)
		}
	}
	if len(inWindow) == 0 {
		return Slot{}, false
	}
	sort.Slice(inWindow, func(i, j int) bool {
		return inWindow[i].Time.Before(inWindow[j].Time)
	})
	return inWindow[len(inWindow)/2], true
}
