package ierr

import "encoding/json"

type ErrorCode string

const (
	ErrorCodePayloadTooLarge   ErrorCode = "PayloadTooLarge"
	ErrorCodeInvalidFormat     ErrorCode = "InvalidFormat"
	ErrorCodeUnknownTopic      ErrorCode = "UnknownTopic"
	ErrorCodeInvalidPayload    ErrorCode = "InvalidPayload"
	ErrorCodeMissingRoom       ErrorCode = "MissingRoom"
	ErrorCodeRoomMismatch      ErrorCode = "RoomMismatch"
	ErrorCodeRateLimitExceeded ErrorCode = "RateLimitExceeded"
	ErrorCodeInvalidArgument   ErrorCode = "InvalidArgument"
	ErrorCodeUnauthenticated   ErrorCode = "Unauthenticated"
	ErrorCodeInternal          ErrorCode = "Internal"
)

type Error struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`

	cause error
}

func New(code ErrorCode, cause error) Error {
	return Error{
		Code:    code,
		Message: cause.Error(),
		cause:   cause,
	}
}

// WithData attaches structured details, like the rate limiter's retry
// hint, to be surfaced in the error reply.
func (e Error) WithData(data json.RawMessage) Error {
	e.Data = data

	return e
}

func (e Error) Error() string {
	return string(e.Code) + ": " + e.cause.Error()
}

func (e Error) Unwrap() error {
	return e.cause
}
