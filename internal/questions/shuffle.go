package questions

import (
	"fmt"
	"math/rand"
	"strconv"

	"triviaarena/internal/domain"
)

// ShuffleOptions turns a raw trivia item into the four-option, shuffled
// shape the client renders, grounded on the rand.Shuffle usage in
// aaronzipp-you-are-officially-sus's internal/handlers/lifecycle.go.
func ShuffleOptions(raw domain.RawQuestion, index int) (domain.Question, error) {
	if len(raw.IncorrectAnswers) < 3 {
		return domain.Question{}, fmt.Errorf("%w: question %q has %d incorrect answers, need 3", domain.ErrQuestionSourceFail, raw.Text, len(raw.IncorrectAnswers))
	}

	options := []string{raw.CorrectAnswer, raw.IncorrectAnswers[0], raw.IncorrectAnswers[1], raw.IncorrectAnswers[2]}
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := 0
	for i, opt := range options {
		if opt == raw.CorrectAnswer {
			correctIndex = i
			break
		}
	}

	var fixed [4]string
	copy(fixed[:], options)

	return domain.Question{
		Id:           strconv.Itoa(index),
		Text:         raw.Text,
		Options:      fixed,
		CorrectIndex: correctIndex,
		Category:     raw.Category,
		Difficulty:   raw.Difficulty,
	}, nil
}

// BuildQuestionSet shuffles the options of each given raw question and ids
// it by its 0-based position, producing the ordered per-room question list
// (spec.md §4.3.1). Fetching the raw questions is the caller's job.
func BuildQuestionSet(raws []domain.RawQuestion) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(raws))
	for i, raw := range raws {
		q, err := ShuffleOptions(raw, i)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}
