package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	defaultListLimit = 50
	defaultSource    = "api"
)

// ListReportsQuery represents supported query params for GET /api/v1/reports
type ListReportsQuery struct {
	Limit int
}

// ParseListReportsQuery parses and validates query params.
// Returns validated query with Limit=50 when omitted.
func ParseListReportsQuery(r *http.Request) (*ListReportsQuery, error) {
	q := r.URL.Query()
	res := ListReportsQuery{Limit: defaultListLimit}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ValidationError{Field: "limit", Reason: "must be an integer"}
		}
		if err := validate.Var(n, "min=1,max=100"); err != nil {
			return nil, &ValidationError{Field: "limit", Reason: "must be between 1 and 100"}
		}
		res.Limit = n
	}

	return &res, nil
}

// AnalyzeQuery represents supported query params for the analyze endpoints.
type AnalyzeQuery struct {
	// Save journals the result. Defaults to true.
	Save bool
	// Source labels the journal record.
	Source string
}

// ParseAnalyzeQuery parses and validates ?save= and ?source=.
func ParseAnalyzeQuery(r *http.Request) (*AnalyzeQuery, error) {
	q := r.URL.Query()
	res := AnalyzeQuery{Save: true, Source: defaultSource}

	if v := strings.TrimSpace(q.Get("save")); v != "" {
		save, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &ValidationError{Field: "save", Reason: "must be a boolean"}
		}
		res.Save = save
	}

	if v := strings.TrimSpace(q.Get("source")); v != "" {
		if err := validate.Var(v, "max=128,printascii"); err != nil {
			return nil, &ValidationError{Field: "source", Reason: "must be printable ASCII, at most 128 characters"}
		}
		res.Source = v
	}

	return &res, nil
}

// ValidateReportID checks the path id of GET /api/v1/reports/{id}.
func ValidateReportID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	if err := validate.Var(id, "uuid"); err != nil {
		return &ValidationError{Field: "id", Reason: "must be a UUID"}
	}
	return nil
}

// ValidationError is a lightweight error used for 400 responses.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation failed"
	}
	if e.Reason == "" {
		return e.Field + ": invalid"
	}
	return e.Field + ": " + e.Reason
}
