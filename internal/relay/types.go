package relay

import (
	"encoding/json"
	"net/http"
)

// Config holds the values the handler needs on every invocation.
type Config struct {
	SharedSecret string
	WebhookURL   string
	// ErrorStack adds a goroutine stack to delivery failure logs.
	ErrorStack bool
}

// Request is one inbound webhook call.
type Request struct {
	Method    string
	Header    http.Header
	Body      []byte
	RequestID string
}

// Response is the status and JSON body returned to the caller.
type Response struct {
	StatusCode int
	Body       []byte
	Outcome    Outcome
}

// Outcome labels how a request ended.
type Outcome string

const (
	OutcomeConfigError    Outcome = "config_error"
	OutcomeUnauthorized   Outcome = "unauthorized"
	OutcomeInvalidJSON    Outcome = "invalid_json"
	OutcomeInvalidBody    Outcome = "invalid_body"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
	OutcomeDelivered      Outcome = "delivered"
)

// ErrorResponse is the JSON body for failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the JSON body for a delivered notification.
type SuccessResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// Error messages returned to callers.
const (
	MsgInternalError = "Internal Server Error"
	MsgUnauthorized  = "Unauthorized"
	MsgInvalidJSON   = "Invalid JSON"
	MsgNotObject     = "Request body must be an object"
	MsgSlackFailed   = "Slack integration failed"
	MsgSuccess       = "Success"
)

// HeaderFromMap builds a canonical header set from a plain map, such as the
// headers of a Lambda event, so lookups ignore case.
func HeaderFromMap(m map[string]string) http.Header {
	h := make(http.Header, len(m))
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

func jsonResponse(status int, outcome Outcome, body any) Response {
	b, err := json.Marshal(body)
	if err != nil {
		b = []byte(`{"error":"` + MsgInternalError + `"}`)
		status = http.StatusInternalServerError
	}
	return Response{StatusCode: status, Body: b, Outcome: outcome}
}

func errorResponse(status int, outcome Outcome, msg string) Response {
	return jsonResponse(status, outcome, ErrorResponse{Error: msg})
}
