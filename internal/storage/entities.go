package storage

import "time"

type DailyCompletion struct {
	UserID           string
	Day              string
	ProtocolDone     bool
	ConstitutionDone bool
	KeystoneDone     bool
	KeystoneText     string
	FullyCompleted   bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type StreakSummary struct {
	UserID            string
	CurrentStreak     int
	LongestStreak     int
	TotalCompletions  int
	LastCompletedDate *string
	UpdatedAt         time.Time
}

// CompletionPatch names the columns a write touches. Nil fields are left as
// they are in the stored row.
type CompletionPatch struct {
	ProtocolDone     *bool
	ConstitutionDone *bool
	KeystoneDone     *bool
	KeystoneText     *string
	At               time.Time
}

func (p CompletionPatch) IsEmpty() bool {
	return p.ProtocolDone == nil && p.ConstitutionDone == nil && p.KeystoneDone == nil && p.KeystoneText == nil
}

type CompletionListFilter struct {
	UserID string
	From   string
	To     string
	Limit  int
	Offset int
}
