// Package domain contains core domain types for the bluecaller application.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PromptRequest is one inbound form submission. It is created per request
// and never mutated afterwards.
type PromptRequest struct {
	ID            string    `json:"id"`
	RawInput      string    `json:"raw_input"`
	ClientAddress string    `json:"client_address"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewPromptRequest stamps a request with a fresh ID and the current time.
func NewPromptRequest(rawInput, clientAddress string) PromptRequest {
	return PromptRequest{
		ID:            uuid.NewString(),
		RawInput:      rawInput,
		ClientAddress: clientAddress,
		Timestamp:     time.Now(),
	}
}
