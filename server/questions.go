package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-exam-client/oauthmodel"
)

var ErrNoQuestions = errors.New("no questions for this exam sitting")

// QuestionBank supplies the questions of an exam sitting
type QuestionBank interface {
	Questions(year, month int) ([]oauthmodel.Question, error)
}

// MemoryQuestionBank is an in-memory QuestionBank keyed by year and month
type MemoryQuestionBank struct {
	lock    sync.RWMutex
	sitting map[string][]oauthmodel.Question
}

func NewMemoryQuestionBank() *MemoryQuestionBank {
	return &MemoryQuestionBank{sitting: make(map[string][]oauthmodel.Question)}
}

// NewSampleQuestionBank returns a bank holding a few practice sittings
func NewSampleQuestionBank() *MemoryQuestionBank {
	b := NewMemoryQuestionBank()
	for _, period := range [][2]int{{2023, 6}, {2023, 11}, {2024, 5}, {2024, 8}} {
		questions := make([]oauthmodel.Question, 0, 5)
		for n := 1; n <= 5; n++ {
			questions = append(questions, oauthmodel.Question{
				Number:      n,
				Text:        fmt.Sprintf("Question %d of the %d-%02d sitting", n, period[0], period[1]),
				Description: "Choose the single best answer.",
			})
		}
		b.Set(period[0], period[1], questions)
	}
	return b
}

func (b *MemoryQuestionBank) Set(year, month int, questions []oauthmodel.Question) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.sitting[sittingKey(year, month)] = append([]oauthmodel.Question(nil), questions...)
}

func (b *MemoryQuestionBank) Questions(year, month int) ([]oauthmodel.Question, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	questions, ok := b.sitting[sittingKey(year, month)]
	if !ok {
		return nil, ErrNoQuestions
	}
	return append([]oauthmodel.Question(nil), questions...), nil
}

func sittingKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
