package voiceagent

import "encoding/json"

// WebhookRequest is the envelope posted by the Vapi voice platform. Every
// message type shares the same outer shape; only the fields relevant to
// the message type are populated.
type WebhookRequest struct {
	Message Message `json:"message"`
	Call    *Call   `json:"call,omitempty"`
}

// Call identifies the voice call the message belongs to.
type Call struct {
	ID string `json:"id"`
}

// Message is the typed payload inside a webhook request.
type Message struct {
	Type            string          `json:"type"`
	Status          string          `json:"status,omitempty"`
	FunctionCall    *FunctionCall   `json:"functionCall,omitempty"`
	Transcript      json.RawMessage `json:"transcript,omitempty"`
	DurationSeconds int             `json:"durationSeconds,omitempty"`
	EndedReason     string          `json:"endedReason,omitempty"`
	Analysis        json.RawMessage `json:"analysis,omitempty"`
}

// FunctionCall is the tool invocation the voice agent's LLM decided to
// make. Parameters arrive as loose strings; validation happens in the
// dispatcher.
type FunctionCall struct {
	Name       string            `json:"name"`
	Parameters map[string]string `json:"parameters"`
}

// WebhookResponse wraps a dispatch result for the voice platform, which
// feeds it back to the LLM to synthesize a spoken reply.
type WebhookResponse struct {
	Result any `json:"result"`
}

// AckResponse acknowledges non-function messages.
type AckResponse struct {
	Success bool `json:"success"`
}

// AppointmentView is a slot rendered for speech synthesis.
type AppointmentView struct {
	Data   string `json:"data"`
	Orario string `json:"orario"`
}

// ContatoreView is the lookup projection of an appointment. Field names
// are the Italian ones the voice agent's prompt refers to.
type ContatoreView struct {
	Matricola               string `json:"matricola"`
	Cliente                 string `json:"cliente"`
	Indirizzo               string `json:"indirizzo"`
	Servizio                string `json:"servizio"`
	Committente             string `json:"committente"`
	Operatore               string `json:"operatore"`
	Cantiere                string `json:"cantiere"`
	PreAssignedDate         string `json:"preAssignedDate,omitempty"`
	PreAssignedTimeSlot     string `json:"preAssignedTimeSlot,omitempty"`
	NeedsConfirmation       bool   `json:"needsConfirmation"`
	HasScheduledAppointment bool   `json:"hasScheduledAppointment"`
	ConfirmedDate           string `json:"confirmedDate,omitempty"`
	ConfirmedTimeSlot       string `json:"confirmedTimeSlot,omitempty"`
	DescrizioneAttivita     string `json:"descrizioneAttivita"`
}

// LookupResult answers lookup_contatore.
type LookupResult struct {
	Found     bool           `json:"found"`
	Message   string         `json:"message,omitempty"`
	Contatore *ContatoreView `json:"contatore,omitempty"`
}

// ConfirmResult answers conferma_appuntamento.
type ConfirmResult struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
	Appuntamento *AppointmentView `json:"appuntamento,omitempty"`
}

// RescheduleResult answers riprogramma_appuntamento.
type RescheduleResult struct {
	Success             bool             `json:"success"`
	Message             string           `json:"message"`
	VecchioAppuntamento *AppointmentView `json:"vecchioAppuntamento,omitempty"`
	NuovoAppuntamento   *AppointmentView `json:"nuovoAppuntamento,omitempty"`
}

// EscalationResult answers escalation_operatore.
type EscalationResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	EscalationID string `json:"escalationId,omitempty"`
}

// UnrecognizedResult is returned for a function name outside the closed
// set the dispatcher supports.
type UnrecognizedResult struct {
	Error string `json:"error"`
}
