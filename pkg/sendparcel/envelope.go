package sendparcel

import (
	"encoding/json"
	"errors"
)

// Envelope is the uniform SendParcel response body.
// Business failures such as an unknown postcode arrive with Status false
// and a human readable Message; they are data, not transport errors.
type Envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`

	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"-"`
}

// OK reports whether the remote service accepted the request.
func (e *Envelope) OK() bool {
	return e != nil && e.Status
}

// DecodeData unmarshals the data field into v.
func (e *Envelope) DecodeData(v any) error {
	if e == nil || len(e.Data) == 0 || string(e.Data) == "null" {
		return ErrNoData
	}
	return json.Unmarshal(e.Data, v)
}

// Err converts a rejected envelope into a *ResultError.
// It returns nil when Status is true.
func (e *Envelope) Err() error {
	if e.OK() {
		return nil
	}
	if e == nil {
		return &ResultError{}
	}
	return &ResultError{Message: e.Message}
}

// ErrNoData is returned by DecodeData when the envelope carries no data.
var ErrNoData = errors.New("sendparcel: envelope has no data")

// ResultError is an application-level rejection reported by the service.
type ResultError struct {
	Message string
}

// Error implements the error interface.
func (e *ResultError) Error() string {
	if e.Message == "" {
		return "sendparcel: request rejected"
	}
	return "sendparcel: " + e.Message
}
