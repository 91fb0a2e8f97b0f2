package http

import (
	"github.com/khoahotran/billing-extractor/internal/domain/extraction"
)

// ExtractionResponse always carries all three keys; unknown values are null.
type ExtractionResponse struct {
	BillingPeriod  *string  `json:"billingPeriod"`
	BillingTerm    *float64 `json:"billingTerm"`
	ContractAmount *string  `json:"contractAmount"`
}

func ToExtractionResponse(r *extraction.Result) ExtractionResponse {
	resp := ExtractionResponse{
		BillingTerm:    r.BillingTerm,
		ContractAmount: r.ContractAmount,
	}
	if r.BillingPeriod != nil {
		p := string(*r.BillingPeriod)
		resp.BillingPeriod = &p
	}
	return resp
}

type HealthResponse struct {
	Status string   `json:"status"`
	Models []string `json:"models"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
