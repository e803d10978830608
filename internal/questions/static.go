package questions

import (
	"context"
	"fmt"

	"triviaarena/internal/domain"
)

// StaticProvider serves a fixed pool of questions, cycling if more are
// requested than the pool holds. Used by engine/roommanager tests in place
// of a live HTTP call.
type StaticProvider struct {
	Pool []domain.RawQuestion
}

func NewStaticProvider(pool []domain.RawQuestion) *StaticProvider {
	return &StaticProvider{Pool: pool}
}

func (p *StaticProvider) FetchQuestions(ctx context.Context, count int) ([]domain.RawQuestion, error) {
	if len(p.Pool) == 0 {
		return nil, domain.ErrNotEnoughQuestions
	}
	out := make([]domain.RawQuestion, count)
	for i := 0; i < count; i++ {
		src := p.Pool[i%len(p.Pool)]
		out[i] = domain.RawQuestion{
			Text:             fmt.Sprintf("%s #%d", src.Text, i),
			CorrectAnswer:    src.CorrectAnswer,
			IncorrectAnswers: src.IncorrectAnswers,
			Category:         src.Category,
			Difficulty:       src.Difficulty,
		}
	}
	return out, nil
}

var _ Provider = (*StaticProvider)(nil)
