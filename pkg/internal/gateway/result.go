package gateway

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

// Result is the uniform shape every endpoint call is reduced to.
type Result struct {
	Success bool
	Data    jsoniter.RawMessage
	Message string
}

// Error means the request never produced a usable answer: transport failure,
// timeout, or a non-2xx response without a parseable body.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("gateway %d: %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway: %s: %v", e.Message, e.Err)
	}
	return "gateway: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

const rejectedMessage = "The request was rejected by the server."

func decodeResult(status int, body []byte) (Result, error) {
	ok := status >= fiber.StatusOK && status < fiber.StatusMultipleChoices
	body = bytes.TrimSpace(body)

	if len(body) == 0 || !jsoniter.Valid(body) {
		if ok {
			return Result{Success: true}, nil
		}
		return Result{}, &Error{Status: status, Message: http.StatusText(status)}
	}

	var fields map[string]jsoniter.RawMessage
	if err := jsoniter.Unmarshal(body, &fields); err != nil {
		// Bare arrays and scalars carry no envelope.
		if ok {
			return Result{Success: true, Data: body}, nil
		}
		return Result{}, &Error{Status: status, Message: http.StatusText(status)}
	}

	message := messageOf(fields)
	success := ok
	if raw, has := fields["success"]; has {
		var flag bool
		if err := jsoniter.Unmarshal(raw, &flag); err == nil {
			success = ok && flag
		}
	}

	if !success {
		if !ok && len(message) == 0 {
			return Result{}, &Error{Status: status, Message: http.StatusText(status)}
		}
		if len(message) == 0 {
			message = rejectedMessage
		}
		return Result{Success: false, Message: message}, nil
	}

	data := jsoniter.RawMessage(body)
	if raw, has := fields["data"]; has {
		data = raw
	}
	return Result{Success: true, Data: data, Message: message}, nil
}

func messageOf(fields map[string]jsoniter.RawMessage) string {
	for _, key := range []string{"message", "error"} {
		raw, has := fields[key]
		if !has {
			continue
		}
		var text string
		if err := jsoniter.Unmarshal(raw, &text); err == nil && len(text) > 0 {
			return text
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := jsoniter.Unmarshal(raw, &nested); err == nil && len(nested.Message) > 0 {
			return nested.Message
		}
	}
	return ""
}
