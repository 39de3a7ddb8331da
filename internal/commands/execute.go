package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Done     func(CategoryArgs) (Result, error)
	Undo     func(CategoryArgs) (Result, error)
	Lock     func(TextArgs) (Result, error)
	Unlock   func() (Result, error)
	Complete func() (Result, error)
	Streak   func() (Result, error)
	Month    func(MonthArgs) (Result, error)
	Last     func(LastArgs) (Result, error)
	Week     func() (Result, error)
	Priority func(TextArgs) (Result, error)
	Step     func(StepArgs) (Result, error)
	Ack      func(TextArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeDone:
		if handlers.Done == nil {
			return missing(cmd.Type)
		}
		return handlers.Done(*cmd.Category)
	case TypeUndo:
		if handlers.Undo == nil {
			return missing(cmd.Type)
		}
		return handlers.Undo(*cmd.Category)
	case TypeLock:
		if handlers.Lock == nil {
			return missing(cmd.Type)
		}
		return handlers.Lock(*cmd.Text)
	case TypeUnlock:
		if handlers.Unlock == nil {
			return missing(cmd.Type)
		}
		return handlers.Unlock()
	case TypeComplete:
		if handlers.Complete == nil {
			return missing(cmd.Type)
		}
		return handlers.Complete()
	case TypeStreak:
		if handlers.Streak == nil {
			return missing(cmd.Type)
		}
		return handlers.Streak()
	case TypeMonth:
		if handlers.Month == nil {
			return missing(cmd.Type)
		}
		return handlers.Month(*cmd.Month)
	case TypeLast:
		if handlers.Last == nil {
			return missing(cmd.Type)
		}
		return handlers.Last(*cmd.Last)
	case TypeWeek:
		if handlers.Week == nil {
			return missing(cmd.Type)
		}
		return handlers.Week()
	case TypePriority:
		if handlers.Priority == nil {
			return missing(cmd.Type)
		}
		return handlers.Priority(*cmd.Text)
	case TypeStep:
		if handlers.Step == nil {
			return missing(cmd.Type)
		}
		return handlers.Step(*cmd.Step)
	case TypeAck:
		if handlers.Ack == nil {
			return missing(cmd.Type)
		}
		return handlers.Ack(*cmd.Text)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func missing(t Type) (Result, error) {
	return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
