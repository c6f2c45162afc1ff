package quota

import (
	"time"

	"voicescribe/internal/app/model"
)

// PeriodStart returns the UTC anchor of the bucket containing t. Days start at
// midnight, weeks on Monday, months on the first.
func PeriodStart(p model.PeriodType, t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch p {
	case model.PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case model.PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// PeriodEnd returns the anchor of the bucket that follows the one containing t
func PeriodEnd(p model.PeriodType, t time.Time) time.Time {
	start := PeriodStart(p, t)
	switch p {
	case model.PeriodWeekly:
		return start.AddDate(0, 0, 7)
	case model.PeriodMonthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Anchors returns the open bucket of every period type at t
func Anchors(t time.Time) []model.PeriodAnchor {
	anchors := make([]model.PeriodAnchor, 0, len(model.Periods))
	for _, p := range model.Periods {
		anchors = append(anchors, model.PeriodAnchor{Type: p, Start: PeriodStart(p, t)})
	}
	return anchors
}
