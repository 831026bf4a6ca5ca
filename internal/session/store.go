package session

import (
	"github.com/arvanehlab/ravan_backend/internal/assessment"
)

// answerSet accumulates the selected option values for one attempt, keyed by
// question id. Keys are always a subset of the definition's question ids.
// Not safe for concurrent use; the owning Session serializes access.
type answerSet struct {
	def    *assessment.Definition
	values map[string]int
}

func newAnswerSet(def *assessment.Definition) *answerSet {
	return &answerSet{def: def, values: make(map[string]int)}
}

// set records (or overwrites) the answer for a question. The value must be
// one of the question's declared option values.
func (a *answerSet) set(questionID string, value int) error {
	q, ok := a.def.Question(questionID)
	if !ok {
		return &ValidationError{Reason: "unknown question id: " + questionID}
	}
	if !q.HasOptionValue(value) {
		return &ValidationError{Reason: "value is not an option of this question"}
	}
	a.values[questionID] = value
	return nil
}

func (a *answerSet) count() int { return len(a.values) }

// missingRequired returns the ids of required questions that have no answer
// yet, in definition order. Empty means submission is enabled.
func (a *answerSet) missingRequired() []string {
	var missing []string
	for _, id := range a.def.RequiredIDs() {
		if _, ok := a.values[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func (a *answerSet) complete() bool { return len(a.missingRequired()) == 0 }

// ordered converts the set to the ordered questionId/value list the scoring
// authority expects; unanswered questions are simply absent.
func (a *answerSet) ordered() []assessment.Response {
	out := make([]assessment.Response, 0, len(a.values))
	for _, q := range a.def.Questions {
		if v, ok := a.values[q.ID]; ok {
			out = append(out, assessment.Response{QuestionID: q.ID, Value: v})
		}
	}
	return out
}

// advisorySum is the locally-visible running total. It is advisory only and
// must never be shown as the authoritative score.
func (a *answerSet) advisorySum() int {
	sum := 0
	for _, v := range a.values {
		sum += v
	}
	return sum
}
