package domain

// Question is a room-scoped, pre-shuffled trivia item (spec.md §3).
type Question struct {
	Id           string // stringified 0-based index
	Text         string
	Options      [4]string
	CorrectIndex int
	Category     string
	Difficulty   string
}

// RawQuestion is what the trivia-provider collaborator returns, before the
// server performs its own Fisher-Yates shuffle of options (spec.md §4.3.1, §9).
type RawQuestion struct {
	Text              string
	CorrectAnswer     string
	IncorrectAnswers  []string
	Category          string
	Difficulty        string
}
