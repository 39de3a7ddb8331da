package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/ritualday/internal/draft"
	"github.com/sandeepkv93/ritualday/internal/model"
)

type Type string

const (
	TypeDone     Type = "done"
	TypeUndo     Type = "undo"
	TypeLock     Type = "lock"
	TypeUnlock   Type = "unlock"
	TypeComplete Type = "complete"
	TypeStreak   Type = "streak"
	TypeMonth    Type = "month"
	TypeLast     Type = "last"
	TypeWeek     Type = "week"
	TypePriority Type = "priority"
	TypeStep     Type = "step"
	TypeAck      Type = "ack"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type CategoryArgs struct {
	Category model.Category
}

type TextArgs struct {
	Text string
}

// MonthArgs is zero when the current month is meant.
type MonthArgs struct {
	Year  int
	Month time.Month
}

type LastArgs struct {
	Days int
}

type StepArgs struct {
	Category model.Category
	Index    int
}

type Command struct {
	Type     Type
	Raw      string
	Category *CategoryArgs
	Text     *TextArgs
	Month    *MonthArgs
	Last     *LastArgs
	Step     *StepArgs
}

// Aliases lets the palette accept the short names shown in the help bar.
var Aliases = map[string]Type{
	"d":      TypeDone,
	"u":      TypeUndo,
	"all":    TypeComplete,
	"m":      TypeMonth,
	"cal":    TypeMonth,
	"strip":  TypeLast,
	"w":      TypeWeek,
	"p":      TypePriority,
	"s":      TypeStreak,
	"streak": TypeStreak,
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	kind := Type(head)
	if alias, ok := Aliases[head]; ok {
		kind = alias
	}

	switch kind {
	case TypeDone, TypeUndo:
		return parseCategory(input, kind, args)
	case TypeLock, TypePriority, TypeAck:
		return parseText(input, kind, args)
	case TypeUnlock, TypeComplete, TypeStreak, TypeWeek:
		if len(args) > 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s takes no arguments", kind)}
		}
		return Command{Type: kind, Raw: input}, nil
	case TypeMonth:
		return parseMonth(input, args)
	case TypeLast:
		return parseLast(input, args)
	case TypeStep:
		return parseStep(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseCategory(raw string, kind Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires one of protocol, constitution, keystone", kind)}
	}
	c, err := ParseCategory(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: kind, Raw: raw, Category: &CategoryArgs{Category: c}}, nil
}

func parseText(raw string, kind Type, args []string) (Command, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires text", kind)}
	}
	return Command{Type: kind, Raw: raw, Text: &TextArgs{Text: text}}, nil
}

func parseMonth(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{Type: TypeMonth, Raw: raw, Month: &MonthArgs{}}, nil
	}
	if len(args) > 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "month takes at most one YYYY-MM argument"}
	}
	ym, err := ParseYearMonth(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeMonth, Raw: raw, Month: &ym}, nil
}

func parseLast(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{Type: TypeLast, Raw: raw, Last: &LastArgs{}}, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 || n > 366 || len(args) > 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "last takes a day count between 1 and 366"}
	}
	return Command{Type: TypeLast, Raw: raw, Last: &LastArgs{Days: n}}, nil
}

func parseStep(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "step requires a category and a step number"}
	}
	c, err := ParseCategory(args[0])
	if err != nil {
		return Command{}, err
	}
	n, err := ParseStepNumber(args[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeStep, Raw: raw, Step: &StepArgs{Category: c, Index: n - 1}}, nil
}

// ParseStepNumber accepts a 1-based step number up to draft.MaxSteps.
func ParseStepNumber(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > draft.MaxSteps {
		return 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("step number must be between 1 and %d", draft.MaxSteps)}
	}
	return n, nil
}

// ParseCategory accepts full names and their first letter.
func ParseCategory(raw string) (model.Category, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "p":
		return model.CategoryProtocol, nil
	case "c":
		return model.CategoryConstitution, nil
	case "k":
		return model.CategoryKeystone, nil
	}
	c, err := model.ParseCategory(raw)
	if err != nil {
		return "", &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	return c, nil
}

func ParseYearMonth(raw string) (MonthArgs, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(raw))
	if err != nil {
		return MonthArgs{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("month must be YYYY-MM, got %q", raw)}
	}
	return MonthArgs{Year: t.Year(), Month: t.Month()}, nil
}
