package ritual

import (
	"context"

	"github.com/sandeepkv93/ritualday/internal/draft"
	"github.com/sandeepkv93/ritualday/internal/model"
)

// Draft returns today's local scratch state. Local-only edits below never
// reach the authoritative store.
func (s *Service) Draft() (draft.State, error) {
	return s.drafts.Load()
}

func (s *Service) SetPriority(ctx context.Context, text string) (draft.State, error) {
	return s.localEdit(ctx, func() (draft.State, error) { return s.drafts.SetPriority(text) })
}

func (s *Service) SetStep(ctx context.Context, c model.Category, index int, checked bool) (draft.State, error) {
	if !c.IsValid() {
		return draft.State{}, model.ErrInvalidCategory
	}
	return s.localEdit(ctx, func() (draft.State, error) { return s.drafts.SetStep(c, index, checked) })
}

func (s *Service) Ack(ctx context.Context, name string) (draft.State, error) {
	return s.localEdit(ctx, func() (draft.State, error) { return s.drafts.Ack(name) })
}

func (s *Service) localEdit(ctx context.Context, fn func() (draft.State, error)) (draft.State, error) {
	st, err := fn()
	if err != nil {
		return draft.State{}, err
	}
	s.Refresh(ctx)
	return st, nil
}
