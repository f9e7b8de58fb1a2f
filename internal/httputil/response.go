package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes a JSON response with the given status code.
// The payload is marshaled before any header is written so an encoding
// failure still produces a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// ProblemDetail is an RFC 7807 problem document. Extra members are
// flattened into the top-level object.
type ProblemDetail struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
	Extra    map[string]interface{}
}

// MarshalJSON flattens Extra next to the standard members
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(p.Extra)+5)
	for k, v := range p.Extra {
		m[k] = v
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	return json.Marshal(m)
}

// NewProblem builds a problem document for status
func NewProblem(status int, detail string) ProblemDetail {
	return ProblemDetail{
		Type:   problemType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// RespondError writes an RFC 7807 problem with only a detail message
func RespondError(w http.ResponseWriter, status int, detail string) {
	writeProblem(w, NewProblem(status, detail))
}

// RespondProblem writes a problem tied to the request: instance is the
// request path and requestId is added when the request carries one.
func RespondProblem(w http.ResponseWriter, r *http.Request, status int, detail string, extras map[string]interface{}) {
	p := NewProblem(status, detail)
	p.Instance = r.URL.Path
	p.Extra = make(map[string]interface{}, len(extras)+1)
	for k, v := range extras {
		p.Extra[k] = v
	}
	if id := GetRequestID(r.Context()); id != "" {
		p.Extra["requestId"] = id
	}
	writeProblem(w, p)
}

func writeProblem(w http.ResponseWriter, p ProblemDetail) {
	payload, err := json.Marshal(p)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	w.Write(payload)
}

// problemType links a status code to its RFC 9110 definition
func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://www.rfc-editor.org/rfc/rfc9110#status.400"
	case http.StatusUnauthorized:
		return "https://www.rfc-editor.org/rfc/rfc9110#status.401"
	case http.StatusForbidden:
		return "https://www.rfc-editor.org/rfc/rfc9110#status.403"
	case http.StatusNotFound:
		return "https://www.rfc-editor.org/rfc/rfc9110#status.404"
	case http.StatusConflict:
		return "https://www.rfc-editor.org/rfc/rfc9110#status.409"
	case http.StatusRequestEntityTooLarge:
		return "https://www.rfc-editor.org/rfc/rfc9110#status.413"
	case http.StatusTooManyRequests:
		return "https://www.rfc-editor.org/rfc/rfc6585#section-4"
	case http.StatusInternalServerError:
		return "https://www.rfc-editor.org/rfc/rfc9110#status.500"
	case http.StatusBadGateway:
		return "https://www.rfc-editor.org/rfc/rfc9110#status.502"
	default:
		return "about:blank"
	}
}
