// Package action defines the work item domain model tracked across a
// conversation between the two chat parties.
package action

import "time"

// TaskType classifies the document or deliverable a work item is about.
type TaskType string

const (
	TaskPANCard       TaskType = "pan_card"
	TaskAadhaar       TaskType = "aadhaar"
	TaskBankStatement TaskType = "bank_statement"
	TaskIncomeProof   TaskType = "income_proof"
	TaskAddressProof  TaskType = "address_proof"
	TaskPhoto         TaskType = "photo"
	TaskSignature     TaskType = "signature"
	TaskOther         TaskType = "other"
)

// Status represents the lifecycle state of an action.
//
// Open and tentative actions may transition to closed; closed is
// terminal. Tentative is assigned only at creation for mid-confidence
// matches and is never promoted automatically.
type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusTentative Status = "tentative"
)

// DeliverableType is the expected form of the deliverable.
type DeliverableType string

const (
	DeliverablePhoto      DeliverableType = "photo"
	DeliverablePDF        DeliverableType = "pdf"
	DeliverableNumber     DeliverableType = "number"
	DeliverableText       DeliverableType = "text"
	DeliverableURL        DeliverableType = "url"
	DeliverableAttachment DeliverableType = "attachment"
)

// StatusHint is the lifecycle signal a message carries about an
// existing action.
type StatusHint string

const (
	HintNone   StatusHint = ""
	HintClosed StatusHint = "closed"
	HintModify StatusHint = "modify"
)

// Action is a persisted unit of work ("who owes whom what document").
//
// TaskKey is a pure function of (task type, owner, discriminating
// metadata); equal semantic candidates always carry byte-identical
// keys.
type Action struct {
	ID             int64     `json:"id"`
	ClientID       string    `json:"client_id"`
	ConversationID string    `json:"conversation_id"`
	TaskType       TaskType  `json:"task_type"`
	TaskText       string    `json:"task_text"`
	TaskKey        string    `json:"task_key"`
	Owner          string    `json:"owner"`
	Status         Status    `json:"status"`
	Metadata       Metadata  `json:"metadata"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Candidate is an ephemeral structured guess parsed from a single
// message, not yet reconciled against the store.
type Candidate struct {
	TaskText   string     `json:"task_text"`
	TaskType   TaskType   `json:"task_type"`
	Owner      string     `json:"owner"`
	StatusHint StatusHint `json:"status_hint,omitempty"`
	Metadata   Metadata   `json:"metadata"`
	Confidence float64    `json:"confidence"`
}
