package ritual

import (
	"fmt"

	"github.com/sandeepkv93/ritualday/internal/model"
	"github.com/sandeepkv93/ritualday/internal/storage"
)

func recordFromStorage(in storage.DailyCompletion) (model.DailyRecord, error) {
	day, err := model.ParseDate(in.Day)
	if err != nil {
		return model.DailyRecord{}, fmt.Errorf("record %s/%q: %w", in.UserID, in.Day, err)
	}
	return model.DailyRecord{
		UserID:           in.UserID,
		Day:              day,
		ProtocolDone:     in.ProtocolDone,
		ConstitutionDone: in.ConstitutionDone,
		KeystoneDone:     in.KeystoneDone,
		KeystoneText:     in.KeystoneText,
		CreatedAt:        in.CreatedAt,
		UpdatedAt:        in.UpdatedAt,
	}, nil
}

func summaryFromStorage(in storage.StreakSummary) (model.StreakSummary, error) {
	out := model.StreakSummary{
		UserID:           in.UserID,
		CurrentStreak:    in.CurrentStreak,
		LongestStreak:    in.LongestStreak,
		TotalCompletions: in.TotalCompletions,
		UpdatedAt:        in.UpdatedAt,
	}
	if in.LastCompletedDate != nil {
		d, err := model.ParseDate(*in.LastCompletedDate)
		if err != nil {
			return model.StreakSummary{}, fmt.Errorf("summary %s: %w", in.UserID, err)
		}
		out.LastCompletedDate = &d
	}
	return out, nil
}

func summaryToStorage(in model.StreakSummary) storage.StreakSummary {
	out := storage.StreakSummary{
		UserID:           in.UserID,
		CurrentStreak:    in.CurrentStreak,
		LongestStreak:    in.LongestStreak,
		TotalCompletions: in.TotalCompletions,
		UpdatedAt:        in.UpdatedAt,
	}
	if in.LastCompletedDate != nil {
		v := in.LastCompletedDate.String()
		out.LastCompletedDate = &v
	}
	return out
}
