package availability

import (
	"sort"
	"strings"
	"time"

	"github.com/lbc354/sgp/internal/model"
)

// Snapshot is the per-user availability view rendered by the leave board.
type Snapshot struct {
	User      model.User
	Available bool
	Label     string
	Current   *model.Leave
	Next      *model.Leave
	Last      *model.Leave
}

// Build evaluates a user's leave records against the reference date.
func Build(user model.User, leaves []model.Leave, today time.Time) Snapshot {
	current := CurrentLeave(leaves, today)
	return Snapshot{
		User:      user,
		Available: current == nil,
		Label:     Label(current),
		Current:   current,
		Next:      NextLeave(leaves, today),
		Last:      LastLeave(leaves, today),
	}
}

// Order sorts snapshots in place for display: unavailable users first, then
// by ascending next-leave start date (users without an upcoming leave last
// within their group), then by case-insensitive username. The sort is
// stable, so equal keys preserve input order.
func Order(snapshots []Snapshot) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		a, b := &snapshots[i], &snapshots[j]
		if a.Available != b.Available {
			return !a.Available
		}
		an, bn := nextStart(a), nextStart(b)
		if !an.Equal(bn) {
			return an.Before(bn)
		}
		return strings.ToLower(a.User.Username) < strings.ToLower(b.User.Username)
	})
}

// nextStart returns the next leave's start date, or a far-future sentinel
// so users without an upcoming leave sort last.
var maxDate = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

func nextStart(s *Snapshot) time.Time {
	if s.Next == nil {
		return maxDate
	}
	return Date(s.Next.StartDate)
}

// Matches reports whether the free-text query appears in any display field
// of the snapshot. An empty query matches everything.
func (s *Snapshot) Matches(query string) bool {
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	fields := []string{
		s.User.Username,
		s.User.DisplayName(),
		s.Label,
		Label(s.Next),
		Label(s.Last),
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
