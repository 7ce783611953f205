package errors

import "net/http"

// Fixed client-facing messages per status. Clients match on these, so they
// never carry per-request detail.
const (
	MsgBadRequest         = "bad request"
	MsgNotFound           = "resource not found"
	MsgMethodNotAllowed   = "method not allowed"
	MsgUnprocessable      = "unprocessable"
	MsgTooManyRequests    = "too many requests"
	MsgInternalError      = "internal server error"
	MsgServiceUnavailable = "service unavailable"
)

var messages = map[int]string{
	http.StatusBadRequest:          MsgBadRequest,
	http.StatusNotFound:            MsgNotFound,
	http.StatusMethodNotAllowed:    MsgMethodNotAllowed,
	http.StatusUnprocessableEntity: MsgUnprocessable,
	http.StatusTooManyRequests:     MsgTooManyRequests,
	http.StatusInternalServerError: MsgInternalError,
	http.StatusServiceUnavailable:  MsgServiceUnavailable,
}

// Message returns the fixed message for status.
func Message(status int) string {
	if msg, ok := messages[status]; ok {
		return msg
	}
	return MsgInternalError
}
