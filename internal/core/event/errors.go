package event

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected means at least one subscriber refused the request.
	ErrRejected = errors.New("request rejected")
	// ErrNoResponse means no subscriber answered the request.
	ErrNoResponse = errors.New("request received no response")
	// ErrPayloadType means a handler received a payload of a foreign type.
	ErrPayloadType = errors.New("unexpected payload type")
	// ErrHandlerPanic wraps a recovered handler panic.
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerError reports one handler's fault during a publish.
type HandlerError struct {
	Channel      Channel
	Subscription string
	Err          error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler %s: %v", e.Channel, e.Subscription, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// RequestError is returned by SystemRequest.Require when the aggregate is
// not an approval.
type RequestError struct {
	Channel Channel
	Result  EventResult
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %v", e.Channel, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
