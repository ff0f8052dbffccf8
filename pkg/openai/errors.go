package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

// Error kinds. Every error returned by this package matches one of them with
// errors.Is.
var (
	// ErrAPIKeyRequired indicates the client was configured without an API key.
	ErrAPIKeyRequired = errors.New("required api key is not specified")

	// ErrInvalidRequest indicates the request body could not be encoded.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTransport indicates the request never produced an HTTP response.
	ErrTransport = errors.New("transport failure")

	// ErrUnexpectedResponse indicates a success body that does not match the expected envelope.
	ErrUnexpectedResponse = errors.New("unexpected response shape")

	// ErrEmptyChoices indicates a chat envelope without any choice.
	ErrEmptyChoices = errors.New("response contains no choices")

	// 401
	ErrInvalidAuthentication = errors.New("invalid authentication")
	ErrIncorrectAPIKey       = errors.New("incorrect api key provided")
	ErrOrganizationRequired  = errors.New("organization membership required")

	// 429
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrEngineOverload    = errors.New("engine is overloaded")

	// 500
	ErrInternalServerError = errors.New("internal server error")

	// ErrUnexpectedStatus covers any other non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Error describes a failed API operation.
type Error struct {
	Op         string // "chat", "completion", "get model", "list models"
	StatusCode int    // 0 when no response was received
	Code       string // error code reported by the server, if any
	Message    string // error message reported by the server, if any
	Kind       error  // one of the Err* kinds
	Err        error  // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("openai: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("request failed")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// statusError converts a non-2xx response into an *Error. The body is read
// with the server's documented error schema; when it does not decode, the
// status code alone decides the kind.
func statusError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, StatusCode: status}

	var resp goopenai.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil {
		e.Code = errorCode(resp.Error.Code)
		e.Message = resp.Error.Message
	} else if msg := strings.TrimSpace(string(body)); msg != "" && len(msg) <= 512 {
		e.Message = msg
	}

	e.Kind = classify(status, e.Code, e.Message)
	return e
}

func classify(status int, code, message string) error {
	msg := strings.ToLower(message)
	switch status {
	case http.StatusUnauthorized:
		switch {
		case code == "invalid_api_key" || strings.Contains(msg, "incorrect api key"):
			return ErrIncorrectAPIKey
		case strings.Contains(msg, "organization"):
			return ErrOrganizationRequired
		default:
			return ErrInvalidAuthentication
		}
	case http.StatusTooManyRequests:
		switch {
		case code == "insufficient_quota" || strings.Contains(msg, "quota"):
			return ErrQuotaExceeded
		case strings.Contains(msg, "overloaded"):
			return ErrEngineOverload
		default:
			return ErrRateLimitExceeded
		}
	case http.StatusServiceUnavailable:
		if strings.Contains(msg, "overloaded") {
			return ErrEngineOverload
		}
		return ErrUnexpectedStatus
	case http.StatusInternalServerError:
		return ErrInternalServerError
	default:
		return ErrUnexpectedStatus
	}
}

// errorCode normalizes the code field, which the server sends as a string,
// a number or null.
func errorCode(code any) string {
	switch v := code.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
