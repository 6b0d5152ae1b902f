// Package availability computes whether a user is unavailable due to an
// absence period. Work distribution is suspended a few days before a leave
// begins so outgoing staff can hand over pending matters; the suspension
// window scales with the leave length:
//
//	up to 10 days   → 2 days
//	11 to 20 days   → 3 days
//	more than 20    → 4 days
//
// All functions are pure over a user's loaded leave records and a reference
// date; persistence side effects live in the leave service.
package availability

import (
	"fmt"
	"time"

	"github.com/lbc354/sgp/internal/model"
)

// DateFormat is the display format used in labels and notification emails.
const DateFormat = "02/01/2006"

// Date truncates t to midnight UTC so that records stored with DATE
// precision compare cleanly against timestamps.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LeadTimeDays returns the number of days before the leave's start during
// which the user already counts as unavailable. The boundaries at exactly
// 10 and 20 days belong to the lower bracket.
func LeadTimeDays(l *model.Leave) int {
	switch d := l.DurationDays(); {
	case d <= 10:
		return 2
	case d <= 20:
		return 3
	default:
		return 4
	}
}

// NextLeave returns the non-interrupted leave with the earliest start date
// strictly after today, or nil. Ties on equal start dates are broken by
// creation time, which keeps the choice deterministic; the original system
// left this unspecified.
func NextLeave(leaves []model.Leave, today time.Time) *model.Leave {
	today = Date(today)
	var next *model.Leave
	for i := range leaves {
		l := &leaves[i]
		if l.Interrupted || !Date(l.StartDate).After(today) {
			continue
		}
		if next == nil || earlier(l, next) {
			next = l
		}
	}
	return next
}

func earlier(a, b *model.Leave) bool {
	as, bs := Date(a.StartDate), Date(b.StartDate)
	if !as.Equal(bs) {
		return as.Before(bs)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// LastLeave returns the non-interrupted leave with the latest end date
// strictly before today, or nil.
func LastLeave(leaves []model.Leave, today time.Time) *model.Leave {
	today = Date(today)
	var last *model.Leave
	for i := range leaves {
		l := &leaves[i]
		if l.Interrupted || !Date(l.EndDate).Before(today) {
			continue
		}
		if last == nil || Date(l.EndDate).After(Date(last.EndDate)) {
			last = l
		}
	}
	return last
}

// CurrentLeave returns the leave making the user unavailable today, or nil.
//
// The upcoming leave wins when today falls inside its pre-leave suspension
// window (start − lead time ≤ today ≤ start). Otherwise any leave actively
// in progress applies — this covers a leave that began more than one
// suspension window ago, which is no longer the "next" one.
func CurrentLeave(leaves []model.Leave, today time.Time) *model.Leave {
	today = Date(today)

	if next := NextLeave(leaves, today); next != nil {
		unavailableFrom := Date(next.StartDate).AddDate(0, 0, -LeadTimeDays(next))
		if !today.Before(unavailableFrom) && !today.After(Date(next.StartDate)) {
			return next
		}
	}

	var current *model.Leave
	for i := range leaves {
		l := &leaves[i]
		if l.Interrupted || Date(l.StartDate).After(today) || Date(l.EndDate).Before(today) {
			continue
		}
		if current == nil || earlier(l, current) {
			current = l
		}
	}
	return current
}

// Label formats a current leave as "start - end | kind" for display.
// It returns the empty string when the user is not on leave.
func Label(l *model.Leave) string {
	if l == nil {
		return ""
	}
	return fmt.Sprintf("%s - %s | %s",
		l.StartDate.Format(DateFormat),
		l.EndDate.Format(DateFormat),
		l.Description.Display(),
	)
}
