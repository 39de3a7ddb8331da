// Package streak computes consecutive-day streaks from fully completed dates.
// Everything here is pure: identical inputs give identical outputs.
package streak

import "github.com/sandeepkv93/ritualday/internal/model"

// MaxWalk bounds how far back Current looks.
const MaxWalk = 365

// Set is a set of distinct fully completed dates.
type Set map[model.Date]struct{}

func NewSet(dates ...model.Date) Set {
	s := make(Set, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

func (s Set) Has(d model.Date) bool {
	_, ok := s[d]
	return ok
}

// Latest returns the most recent date in the set.
func (s Set) Latest() (model.Date, bool) {
	var latest model.Date
	found := false
	for d := range s {
		if !found || d.After(latest) {
			latest = d
			found = true
		}
	}
	return latest, found
}

// Current counts consecutive days ending at ref that are all in the set. A
// missing ref yields 0 and any gap stops the count.
func Current(s Set, ref model.Date) int {
	if !s.Has(ref) {
		return 0
	}
	count := 0
	day := ref
	for count < MaxWalk && s.Has(day) {
		count++
		day = day.AddDays(-1)
	}
	return count
}

// Summarize recomputes every aggregate field from the set. Longest never drops
// below prev.LongestStreak.
func Summarize(userID string, s Set, ref model.Date, prev model.StreakSummary) model.StreakSummary {
	current := Current(s, ref)
	longest := prev.LongestStreak
	if current > longest {
		longest = current
	}
	out := model.StreakSummary{
		UserID:           userID,
		CurrentStreak:    current,
		LongestStreak:    longest,
		TotalCompletions: len(s),
	}
	if last, ok := s.Latest(); ok {
		out.LastCompletedDate = &last
	}
	return out
}
