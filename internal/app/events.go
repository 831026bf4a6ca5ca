package app

// Event subjects published by the services and consumed by the workers. The
// varying suffix is the attempt id / slot id, so subscribers use a wildcard.
const (
	subjectAssessmentCompleted = "ravan.assessment.completed."
	subjectEscalationReserved  = "ravan.escalation.reserved."
)

type completedEvent struct {
	PersonID string `json:"person_id"`
	Severity string `json:"severity"`
}

type reservedEvent struct {
	PersonID string `json:"person_id"`
	SlotID   string `json:"slot_id"`
}
