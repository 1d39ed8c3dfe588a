package presenter

import (
	"fmt"

	"pdf-quiz/internal/domain"

	"github.com/samber/lo"
)

// NoQuestionsMessage is shown instead of controls when generation produced nothing.
const NoQuestionsMessage = "No questions generated."

// OptionView is one choice of a single-choice control. Correct is only set once the
// quiz is submitted.
type OptionView struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
	Correct  bool   `json:"correct,omitempty"`
}

// QuestionView is one control, keyed by the composite question key.
type QuestionView struct {
	Key      string       `json:"key"`
	Label    string       `json:"label"`
	Text     string       `json:"text"`
	Options  []OptionView `json:"options"`
	Selected string       `json:"selected,omitempty"`
	Answer   string       `json:"answer,omitempty"`
	Answered bool         `json:"answered"`
	Correct  bool         `json:"correct,omitempty"`
}

// GroupView is a case study with its questions. Flat quizzes have a single untitled group.
type GroupView struct {
	Title     string         `json:"title,omitempty"`
	Narrative string         `json:"narrative,omitempty"`
	Questions []QuestionView `json:"questions"`
}

// View is everything a page needs to render a session.
type View struct {
	SessionID    string              `json:"session_id"`
	DocumentName string              `json:"document_name"`
	State        domain.SessionState `json:"state"`
	Message      string              `json:"message,omitempty"`
	FailureKind  string              `json:"failure_kind,omitempty"`
	Groups       []GroupView         `json:"groups"`
	Submitted    bool                `json:"submitted"`
	Report       *domain.ScoreReport `json:"report,omitempty"`
	Selections   domain.Selections   `json:"selections"`
}

// HasControls reports whether the page should offer a submit action.
func (v View) HasControls() bool {
	return len(v.Groups) > 0 && !v.Submitted
}

// Build derives the view from a session and its selections. It has no side effects, so
// building twice from the same inputs yields the same view.
func Build(session *domain.Session, selections domain.Selections) View {
	view := View{
		Groups:     []GroupView{},
		Selections: domain.Selections{},
	}
	if session == nil {
		view.Message = NoQuestionsMessage
		return view
	}

	view.SessionID = session.ID
	view.DocumentName = session.DocumentName
	view.State = session.State
	view.Submitted = session.State == domain.StateSubmitted

	if !session.HasQuestions() {
		view.Message = NoQuestionsMessage
		if session.GenerationError != nil {
			view.FailureKind = string(session.GenerationError.Kind)
		}
		return view
	}

	for key, option := range selections {
		view.Selections[key] = option
	}

	caseStudy := session.Quiz.Variant != domain.VariantFlat
	for gi, group := range session.Quiz.Groups {
		gv := GroupView{
			Narrative: group.Narrative,
			Questions: make([]QuestionView, 0, len(group.Questions)),
		}
		if caseStudy {
			gv.Title = fmt.Sprintf("Case %d", gi+1)
		}
		for qi, question := range group.Questions {
			gv.Questions = append(gv.Questions, buildQuestion(gi, qi, question, selections, view.Submitted))
		}
		view.Groups = append(view.Groups, gv)
	}

	if view.Submitted && session.Report != nil {
		report := *session.Report
		view.Report = &report
	}
	return view
}

func buildQuestion(gi, qi int, question domain.Question, selections domain.Selections, submitted bool) QuestionView {
	key := domain.QuestionKey(gi, qi)
	selected, answered := selections[key]

	qv := QuestionView{
		Key:      key,
		Label:    fmt.Sprintf("Q%d: %s", qi+1, question.Text),
		Text:     question.Text,
		Selected: selected,
		Answered: answered,
		Options: lo.Map(question.Options, func(option string, _ int) OptionView {
			return OptionView{
				Value:    option,
				Selected: answered && option == selected,
				Correct:  submitted && option == question.Correct,
			}
		}),
	}
	if submitted {
		qv.Answer = question.Correct
		qv.Correct = answered && selected == question.Correct
	}
	return qv
}
