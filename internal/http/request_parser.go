package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"salaryreport/internal/core"
)

// MaxBodyBytes bounds the size of a calculate request body.
const MaxBodyBytes = 64 << 10

// errMalformedBody marks a body that is not a single JSON object.
var errMalformedBody = errors.New("request body must be a JSON object")

// DecodeObject reads a single JSON object from r. Numbers are kept as
// json.Number so integers and floats are both accepted without loss.
func DecodeObject(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, errMalformedBody
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return raw, nil
}

// ParseCalculateRequest decodes and validates a calculate request body.
func ParseCalculateRequest(w http.ResponseWriter, r *http.Request) (core.SalaryInput, error) {
	raw, err := DecodeObject(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return core.SalaryInput{}, err
	}
	return core.ParseInput(raw)
}

// ParseLimit reads the optional limit query parameter. A missing value
// means the maximum; a non-integer is a validation error.
func ParseLimit(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return core.MaxRecentReports, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &core.ValidationError{Fields: []string{"limit"}, Reason: "limit must be an integer"}
	}
	return core.ClampLimit(n), nil
}
