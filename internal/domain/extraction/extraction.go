package extraction

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type BillingPeriod string

const (
	PeriodMonthly   BillingPeriod = "monthly"
	PeriodQuarterly BillingPeriod = "quarterly"
	PeriodYearly    BillingPeriod = "yearly"
)

var BillingPeriods = []BillingPeriod{PeriodMonthly, PeriodQuarterly, PeriodYearly}

func (p BillingPeriod) Valid() bool {
	for _, known := range BillingPeriods {
		if p == known {
			return true
		}
	}
	return false
}

// Result is the billing summary of one contract. Absent values are encoded as
// null, never omitted.
type Result struct {
	BillingPeriod  *BillingPeriod `json:"billingPeriod"`
	BillingTerm    *float64       `json:"billingTerm"`
	ContractAmount *string        `json:"contractAmount"`
}

type FieldType string

const (
	FieldNumber FieldType = "number"
	FieldEnum   FieldType = "enum"
	FieldString FieldType = "string"
)

type Field struct {
	Name        string
	Type        FieldType
	Nullable    bool
	Enum        []string
	Description string
}

// Schema is the contract handed to the model provider. Field order is kept in
// the rendered JSON Schema.
type Schema struct {
	Name        string
	Description string
	Fields      []Field
}

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Event describes one finished extraction run.
type Event struct {
	ID             uuid.UUID       `json:"id"`
	RequestID      string          `json:"request_id"`
	Model          string          `json:"model"`
	DocumentPath   string          `json:"document_path"`
	DocumentSHA256 string          `json:"document_sha256,omitempty"`
	Pages          int             `json:"pages,omitempty"`
	Status         Status          `json:"status"`
	Result         json.RawMessage `json:"result,omitempty"`
	ErrorKind      string          `json:"error_kind,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	DurationMS     int64           `json:"duration_ms"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

type Repository interface {
	Save(ctx context.Context, event *Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*Event, error)
	ListRecent(ctx context.Context, limit int) ([]*Event, error)
}
