package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidCategory = errors.New("model: invalid ritual category")
	// ErrKeystoneTextRequired marks a keystone completion without lock text.
	ErrKeystoneTextRequired = errors.New("model: keystone lock text is required")
)

// Category names one of the three daily sub-tasks.
type Category string

const (
	CategoryProtocol     Category = "protocol"
	CategoryConstitution Category = "constitution"
	CategoryKeystone     Category = "keystone"
)

var Categories = []Category{CategoryProtocol, CategoryConstitution, CategoryKeystone}

func (c Category) IsValid() bool {
	switch c {
	case CategoryProtocol, CategoryConstitution, CategoryKeystone:
		return true
	default:
		return false
	}
}

func ParseCategory(input string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(input)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, input)
	}
	return c, nil
}

// DayStatus classifies a calendar cell.
type DayStatus string

const (
	DayStatusFull    DayStatus = "full"
	DayStatusPartial DayStatus = "partial"
	DayStatusNone    DayStatus = "none"
)

func (s DayStatus) IsValid() bool {
	switch s {
	case DayStatusFull, DayStatusPartial, DayStatusNone:
		return true
	default:
		return false
	}
}

// DailyRecord is the authoritative completion state of one user on one day.
type DailyRecord struct {
	UserID           string
	Day              Date
	ProtocolDone     bool
	ConstitutionDone bool
	KeystoneDone     bool
	KeystoneText     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullyCompleted is always derived from the three flags, never stored.
func (r DailyRecord) FullyCompleted() bool {
	return r.ProtocolDone && r.ConstitutionDone && r.KeystoneDone
}

func (r DailyRecord) Done(c Category) bool {
	switch c {
	case CategoryProtocol:
		return r.ProtocolDone
	case CategoryConstitution:
		return r.ConstitutionDone
	case CategoryKeystone:
		return r.KeystoneDone
	default:
		return false
	}
}

func (r DailyRecord) Status() DayStatus {
	return Classify(r.ProtocolDone, r.ConstitutionDone, r.KeystoneDone)
}

func Classify(protocol, constitution, keystone bool) DayStatus {
	switch {
	case protocol && constitution && keystone:
		return DayStatusFull
	case protocol || constitution || keystone:
		return DayStatusPartial
	default:
		return DayStatusNone
	}
}

func (r DailyRecord) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("model: record user_id is required")
	}
	if r.Day.IsZero() {
		return errors.New("model: record day is required")
	}
	if r.KeystoneDone && strings.TrimSpace(r.KeystoneText) == "" {
		return ErrKeystoneTextRequired
	}
	return nil
}

// StreakSummary is the per-user aggregate derived from the record set.
type StreakSummary struct {
	UserID            string
	CurrentStreak     int
	LongestStreak     int
	TotalCompletions  int
	LastCompletedDate *Date
	UpdatedAt         time.Time
}

func (s StreakSummary) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return errors.New("model: summary user_id is required")
	}
	if s.CurrentStreak < 0 || s.LongestStreak < 0 || s.TotalCompletions < 0 {
		return errors.New("model: summary counters must be non-negative")
	}
	if s.LongestStreak < s.CurrentStreak {
		return fmt.Errorf("model: longest_streak %d below current_streak %d", s.LongestStreak, s.CurrentStreak)
	}
	return nil
}
