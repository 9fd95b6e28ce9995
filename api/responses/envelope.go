package responses

// requestIDHeader is set on the response by the request id middleware before
// any handler runs, so error bodies can echo it back.
const requestIDHeader = "X-Request-Id"

type successEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody is the public shape of a failed request.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}
