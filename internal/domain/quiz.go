package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// OptionsPerQuestion is the fixed number of choices every question carries.
const OptionsPerQuestion = 4

// SchemaVersion identifies the wire shape quizzes are parsed from.
const SchemaVersion = "v1"

// Variant is the shape of quiz the LLM is asked for.
type Variant string

const (
	VariantCaseStudy Variant = "case_study"
	VariantFlat      Variant = "flat"
)

// Question is a single multiple-choice question. Correct must be one of Options.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct string   `json:"correct"`
}

// Validate checks the option count and that the correct answer is one of the options.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("question text is required")
	}
	if len(q.Options) != OptionsPerQuestion {
		return NewValidationError(fmt.Sprintf("question %q has %d options, want %d", q.Text, len(q.Options), OptionsPerQuestion))
	}
	if !slices.Contains(q.Options, q.Correct) {
		return NewValidationError(fmt.Sprintf("correct answer %q of question %q is not one of its options", q.Correct, q.Text))
	}
	return nil
}

// QuestionGroup is a case study: an optional narrative and the questions built on it.
type QuestionGroup struct {
	Narrative string     `json:"narrative,omitempty"`
	Questions []Question `json:"questions"`
}

// Quiz is the structured output of one generation.
type Quiz struct {
	SchemaVersion string          `json:"schema_version"`
	Variant       Variant         `json:"variant"`
	Groups        []QuestionGroup `json:"groups"`
}

// Expectations are the counts a generated quiz must satisfy. Zero values are not checked.
type Expectations struct {
	Groups            int
	QuestionsPerGroup int
	TotalQuestions    int
}

// TotalQuestions counts questions across all groups.
func (q *Quiz) TotalQuestions() int {
	if q == nil {
		return 0
	}
	return lo.SumBy(q.Groups, func(g QuestionGroup) int { return len(g.Questions) })
}

// IsEmpty reports whether the quiz has nothing to present.
func (q *Quiz) IsEmpty() bool {
	return q.TotalQuestions() == 0
}

// Validate checks every question and the configured counts.
func (q *Quiz) Validate(expect Expectations) error {
	if q == nil {
		return NewValidationError("quiz is nil")
	}
	if expect.Groups > 0 && len(q.Groups) != expect.Groups {
		return NewValidationError(fmt.Sprintf("quiz has %d groups, want %d", len(q.Groups), expect.Groups))
	}
	for gi, g := range q.Groups {
		if expect.QuestionsPerGroup > 0 && len(g.Questions) != expect.QuestionsPerGroup {
			return NewValidationError(fmt.Sprintf("group %d has %d questions, want %d", gi, len(g.Questions), expect.QuestionsPerGroup))
		}
		for _, question := range g.Questions {
			if err := question.Validate(); err != nil {
				return err
			}
		}
	}
	if expect.TotalQuestions > 0 && q.TotalQuestions() != expect.TotalQuestions {
		return NewValidationError(fmt.Sprintf("quiz has %d questions, want %d", q.TotalQuestions(), expect.TotalQuestions))
	}
	return nil
}

// QuestionKey is the composite key binding a control to its stored selection.
func QuestionKey(groupIndex, questionIndex int) string {
	return fmt.Sprintf("g%d-q%d", groupIndex, questionIndex)
}

// FindQuestion resolves a composite key back to its question.
func (q *Quiz) FindQuestion(key string) (Question, bool) {
	if q == nil {
		return Question{}, false
	}
	var gi, qi int
	if n, err := fmt.Sscanf(key, "g%d-q%d", &gi, &qi); err != nil || n != 2 {
		return Question{}, false
	}
	if QuestionKey(gi, qi) != key {
		return Question{}, false
	}
	if gi < 0 || gi >= len(q.Groups) || qi < 0 || qi >= len(q.Groups[gi].Questions) {
		return Question{}, false
	}
	return q.Groups[gi].Questions[qi], true
}

// Selections maps composite keys to the option the user chose.
type Selections map[string]string

// ScoreReport is the result of scoring one submission.
type ScoreReport struct {
	Score              int      `json:"score"`
	Total              int      `json:"total"`
	CorrectQuestions   []string `json:"correct_questions"`
	IncorrectQuestions []string `json:"incorrect_questions"`
}

// Score compares each selection with the recorded answer. Matching is exact and
// case-sensitive; a missing selection counts as incorrect.
func Score(quiz *Quiz, selections Selections) ScoreReport {
	report := ScoreReport{
		CorrectQuestions:   []string{},
		IncorrectQuestions: []string{},
	}
	if quiz == nil {
		return report
	}
	for gi, g := range quiz.Groups {
		for qi, question := range g.Questions {
			report.Total++
			selected, ok := selections[QuestionKey(gi, qi)]
			if ok && selected == question.Correct {
				report.Score++
				report.CorrectQuestions = append(report.CorrectQuestions, question.Text)
				continue
			}
			report.IncorrectQuestions = append(report.IncorrectQuestions, question.Text)
		}
	}
	return report
}
