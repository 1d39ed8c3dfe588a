package prompt

import (
	"pdf-quiz/internal/domain"
)

// The types below are the v1 wire schema the model is asked to produce. Field
// names are fixed; there are no aliases.

type QuestionV1 struct {
	Question string   `json:"question" describe:"The question"`
	Options  []string `json:"options" describe:"list of 4 options for the question with one correct and other incorrect"`
	Correct  string   `json:"correct" describe:"correct option or answer of the question, copied exactly from options"`
}

type CaseStudyV1 struct {
	CaseStudy string       `json:"case_study" describe:"generated case study for the questions"`
	Questions []QuestionV1 `json:"questions" describe:"list of questions, options and correct option for this case study"`
}

// CaseStudyResponseV1 is the root object for the case study variant.
type CaseStudyResponseV1 struct {
	CaseStudies []CaseStudyV1 `json:"case_studies" describe:"list of case studies and their questions"`
}

// FlatResponseV1 is the root object for the flat variant.
type FlatResponseV1 struct {
	Questions []QuestionV1 `json:"questions" describe:"list of questions, options and correct option"`
}

func (q QuestionV1) toDomain() domain.Question {
	return domain.Question{
		Text:    q.Question,
		Options: append([]string(nil), q.Options...),
		Correct: q.Correct,
	}
}

func questionsToDomain(in []QuestionV1) []domain.Question {
	out := make([]domain.Question, 0, len(in))
	for _, q := range in {
		out = append(out, q.toDomain())
	}
	return out
}

// ToDomain converts the wire shape to a quiz; each case study becomes a group.
func (r CaseStudyResponseV1) ToDomain() *domain.Quiz {
	quiz := &domain.Quiz{
		SchemaVersion: domain.SchemaVersion,
		Variant:       domain.VariantCaseStudy,
		Groups:        make([]domain.QuestionGroup, 0, len(r.CaseStudies)),
	}
	for _, cs := range r.CaseStudies {
		quiz.Groups = append(quiz.Groups, domain.QuestionGroup{
			Narrative: cs.CaseStudy,
			Questions: questionsToDomain(cs.Questions),
		})
	}
	return quiz
}

// ToDomain converts the wire shape to a quiz with a single group and no narrative.
func (r FlatResponseV1) ToDomain() *domain.Quiz {
	quiz := &domain.Quiz{
		SchemaVersion: domain.SchemaVersion,
		Variant:       domain.VariantFlat,
		Groups:        []domain.QuestionGroup{},
	}
	if len(r.Questions) > 0 {
		quiz.Groups = append(quiz.Groups, domain.QuestionGroup{Questions: questionsToDomain(r.Questions)})
	}
	return quiz
}
