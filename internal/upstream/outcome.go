package upstream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind tags the result of an upstream round trip.
type Kind int

const (
	KindSuccess Kind = iota
	KindUpstreamError
	KindTransportError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindUpstreamError:
		return "upstream_error"
	case KindTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FallbackRejectionMessage is used when a rejection carries no usable message.
const FallbackRejectionMessage = "Upstream request failed"

// ErrorResponse is the outward body for upstream failures. It never carries
// upstream internals beyond the rejection reason, code and validation details.
// Code is the provider's own code copied as raw JSON, not an HTTP status;
// locally raised errors use server.ErrorResponse.
type ErrorResponse struct {
	Error   string          `json:"error"`
	Code    json.RawMessage `json:"code,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// Outcome is the classified result of one upstream call.
type Outcome struct {
	Kind Kind

	// Status is the upstream status for Success and UpstreamError.
	Status int

	// Body is the verbatim upstream body (Success only).
	Body []byte

	// Rejection is the normalized upstream error (UpstreamError only).
	Rejection ErrorResponse

	// Cause explains a TransportError. Log it, never return it.
	Cause error
}

// Classify maps a transport result onto an Outcome:
//
//	err != nil              -> TransportError
//	body is not valid JSON  -> TransportError
//	2xx                     -> Success (body verbatim)
//	otherwise               -> UpstreamError (status preserved)
func Classify(resp *Response, err error) Outcome {
	if err != nil {
		return Outcome{Kind: KindTransportError, Cause: err}
	}
	if resp == nil {
		return Outcome{Kind: KindTransportError, Cause: errors.New("nil upstream response")}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok {
		if !json.Valid(resp.Body) {
			return Outcome{
				Kind:  KindTransportError,
				Cause: fmt.Errorf("malformed upstream body (status %d)", resp.StatusCode),
			}
		}
		return Outcome{Kind: KindSuccess, Status: resp.StatusCode, Body: resp.Body}
	}

	rejection, perr := parseRejection(resp.Body)
	if perr != nil {
		return Outcome{
			Kind:  KindTransportError,
			Cause: fmt.Errorf("parse upstream error body (status %d): %w", resp.StatusCode, perr),
		}
	}
	return Outcome{Kind: KindUpstreamError, Status: resp.StatusCode, Rejection: rejection}
}

// Render returns the outward status and error body for a failed outcome.
// generic is the message used for transport failures.
func (o Outcome) Render(generic string) (int, ErrorResponse) {
	if o.Kind == KindUpstreamError {
		return o.Status, o.Rejection
	}
	return http.StatusInternalServerError, ErrorResponse{Error: generic}
}

func parseRejection(body []byte) (ErrorResponse, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ErrorResponse{}, err
	}
	if fields == nil {
		return ErrorResponse{}, errors.New("error body is null")
	}

	out := ErrorResponse{
		Error: firstString(fields, "reason", "message", "description", "error"),
		Code:  present(fields["code"]),
	}
	if out.Error == "" {
		out.Error = FallbackRejectionMessage
	}

	if d := present(fields["validationErrors"]); d != nil {
		out.Details = d
	} else if d := nestedDetails(fields["data"]); d != nil {
		out.Details = d
	} else {
		out.Details = present(fields["details"])
	}
	return out, nil
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func nestedDetails(raw json.RawMessage) json.RawMessage {
	if present(raw) == nil {
		return nil
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return present(data["details"])
}

// present drops absent and null values so omitempty hides them.
func present(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}
