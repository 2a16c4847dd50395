package appointment

import (
	"sort"
	"time"

	"github.com/medichannel/medichannel/internal/domain/directory"
)

// buildSlots generates the open slot times for one day: candidates are laid
// out at slotMinutes granularity inside each non-break window for the
// weekday, minutes covered by break windows are never generated, and booked
// times are subtracted. The result is ascending and deduplicated.
func buildSlots(windows []*directory.WorkingWindow, weekday time.Weekday, slotMinutes int, booked map[string]struct{}) []string {
	var work, breaks []*directory.WorkingWindow
	for _, w := range windows {
		if w.Weekday != weekday {
			continue
		}
		if w.Break {
			breaks = append(breaks, w)
		} else {
			work = append(work, w)
		}
	}

	seen := make(map[string]struct{})
	var slots []string
	for _, w := range work {
		start, err1 := clockMinutes(w.Start)
		end, err2 := clockMinutes(w.End)
		if err1 != nil || err2 != nil {
			continue
		}
		for m := start; m+slotMinutes <= end; m += slotMinutes {
			if coveredByBreak(breaks, m, m+slotMinutes) {
				continue
			}
			slot := minutesClock(m)
			if _, dup := seen[slot]; dup {
				continue
			}
			if _, taken := booked[slot]; taken {
				continue
			}
			seen[slot] = struct{}{}
			slots = append(slots, slot)
		}
	}

	sort.Strings(slots)
	return slots
}

// coveredByBreak reports whether the candidate slot [start, end) overlaps any
// break window.
func coveredByBreak(breaks []*directory.WorkingWindow, start, end int) bool {
	for _, b := range breaks {
		bStart, err1 := clockMinutes(b.Start)
		bEnd, err2 := clockMinutes(b.End)
		if err1 != nil || err2 != nil {
			continue
		}
		if start < bEnd && end > bStart {
			return true
		}
	}
	return false
}

func clockMinutes(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minutesClock(m int) string {
	return time.Date(0, 1, 1, m/60, m%60, 0, 0, time.UTC).Format("15:04")
}
