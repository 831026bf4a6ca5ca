package email

import "fmt"

// CrisisAlert builds the message sent to the on-call care team when the
// scoring authority returns a severe result. The attempt id, not the
// person's answers, is included; clinical detail stays in the backend.
func CrisisAlert(to []string, personID, attemptID, severity string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Crisis alert: %s assessment result", severity),
		TextBody: fmt.Sprintf(
			"A completed self-assessment was classified as %s.\n\n"+
				"Person: %s\nAttempt: %s\n\n"+
				"Please follow the on-call escalation procedure.",
			severity, personID, attemptID,
		),
	}
}

// BookingConfirmation builds the message sent after a slot reservation wins.
func BookingConfirmation(to []string, personID, slotID string) Message {
	return Message{
		To:      to,
		Subject: "Appointment slot reserved",
		TextBody: fmt.Sprintf(
			"An appointment slot was reserved following an elevated assessment result.\n\n"+
				"Person: %s\nSlot: %s\n",
			personID, slotID,
		),
	}
}
