package chat

import (
	"time"

	"chatsync/internal/common"
)

// DayGroup is a run of messages from one calendar day.
type DayGroup struct {
	Label    string
	Day      time.Time
	Messages []common.Message
}

// GroupByDay buckets msgs by calendar day in loc. Groups appear in the order
// their first message appears; a later message from an earlier day joins the
// existing group rather than opening a new one.
func GroupByDay(msgs []common.Message, now time.Time, loc *time.Location) []DayGroup {
	var groups []DayGroup
	index := make(map[string]int)

	for _, m := range msgs {
		day := startOfDay(m.CreatedAt, loc)
		key := day.Format(time.DateOnly)
		if i, ok := index[key]; ok {
			groups[i].Messages = append(groups[i].Messages, m)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, DayGroup{
			Label:    DayLabel(m.CreatedAt, now, loc),
			Day:      day,
			Messages: []common.Message{m},
		})
	}
	return groups
}

// DayLabel renders t as "Today", "Yesterday", "Jan 2" or, outside the
// current year, "Jan 2, 2006".
func DayLabel(t, now time.Time, loc *time.Location) string {
	day := startOfDay(t, loc)
	today := startOfDay(now, loc)

	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case day.Year() != today.Year():
		return day.Format("Jan 2, 2006")
	default:
		return day.Format("Jan 2")
	}
}

// ClockLabel renders the 12-hour wall clock time without a meridiem.
func ClockLabel(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("03:04")
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
