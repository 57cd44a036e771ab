package notify

import "context"

//go:generate mockgen -destination=mocks/mock_deliverer.go -package=mocks github.com/mattjoyce/orderhook/internal/notify Deliverer

// Deliverer posts a chat message to a webhook URL. A non-nil error means the
// request never produced an HTTP response; any status code, including
// failures, is reported through Result.
type Deliverer interface {
	Deliver(ctx context.Context, url string, msg Message) (Result, error)
}

// Message is the JSON body of an incoming-webhook post.
type Message struct {
	Text string `json:"text"`
}

// Result describes the destination's HTTP response.
type Result struct {
	StatusCode int
	Status     string
	Body       string

	// BodyErr is set when the response body could not be read in full.
	// Body then holds whatever arrived before the failure.
	BodyErr error
}

// OK reports a 2xx status.
func (r Result) OK() bool {
	return r.StatusCode/100 == 2
}
