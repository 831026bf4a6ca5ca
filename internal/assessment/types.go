package assessment

import "time"

// Definition is the ordered question list for one assessment, as served by
// the content provider. Immutable once loaded.
type Definition struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

type Question struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Required bool     `json:"required"`
	Options  []Option `json:"options"`
}

// Option is a single Likert choice. Values are small non-negative integers,
// typically 0-3.
type Option struct {
	Value       int    `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// HasOptionValue reports whether v is one of the question's declared values.
func (q Question) HasOptionValue(v int) bool {
	for _, o := range q.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Question returns the question with the given id, if the definition has it.
func (d *Definition) Question(id string) (Question, bool) {
	for _, q := range d.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// RequiredIDs returns the ids of all required questions in definition order.
func (d *Definition) RequiredIDs() []string {
	var ids []string
	for _, q := range d.Questions {
		if q.Required {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

type ConsentRecord struct {
	Accepted   bool      `json:"accepted"`
	AcceptedAt time.Time `json:"accepted_at,omitzero"`
}

// Response is one questionId/value pair in the ordered submission payload.
type Response struct {
	QuestionID string `json:"questionId"`
	Value      int    `json:"value"`
}

// SubmissionResult is the authoritative outcome returned by the scoring
// authority. TotalScore and Severity are never computed locally.
type SubmissionResult struct {
	SubmissionID string    `json:"submissionId"`
	TotalScore   int       `json:"totalScore"`
	Severity     Severity  `json:"severityTier"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// Slot is a bookable appointment window owned by the scheduling backend.
// Only open slots are ever listed; status transitions happen backend-side.
type Slot struct {
	ID              string    `json:"id"`
	StartTime       time.Time `json:"startTime"`
	DurationMinutes int       `json:"durationMinutes"`
}

type BookingOutcome string

const (
	BookingReserved BookingOutcome = "reserved"
	BookingConflict BookingOutcome = "conflict"
	BookingError    BookingOutcome = "error"
)

type BookingAttempt struct {
	SlotID  string         `json:"slot_id"`
	Outcome BookingOutcome `json:"outcome"`
}
