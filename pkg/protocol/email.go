package protocol

import "time"

// Category is an email classification label.
type Category string

const (
	CategoryHighPriority  Category = "HIGH PRIORITY"
	CategoryAgent         Category = "AGENT"
	CategoryTerminal      Category = "TERMINAL"
	CategorySurveyor      Category = "SURVEYOR"
	CategoryNomination    Category = "NOMINATION"
	CategoryLoadingMaster Category = "LOADING_MASTER"
	CategoryOperations    Category = "OPERATIONS"
	CategoryGeneral       Category = "GENERAL"
)

// DelayRisk grades how strongly a message text signals delay.
type DelayRisk string

const (
	RiskNone   DelayRisk = "NONE"
	RiskLow    DelayRisk = "LOW"
	RiskMedium DelayRisk = "MEDIUM"
	RiskHigh   DelayRisk = "HIGH"
)

// EmailMessage is one inbound message after gateway fetch and enrichment.
type EmailMessage struct {
	ID          string    `json:"id"` // stable gateway identifier, used for reprocessing guard
	SenderName  string    `json:"sender_name"`
	SenderEmail string    `json:"sender_email"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Summary     string    `json:"summary,omitempty"`
	Received    time.Time `json:"received"`
	Vessels     []string  `json:"vessels,omitempty"` // known vessels mentioned, first-seen order
	Category    Category  `json:"category,omitempty"`
	DelayRisk   DelayRisk `json:"delay_risk,omitempty"`
	Urgency     int       `json:"urgency"` // 0-100
}
