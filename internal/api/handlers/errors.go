package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: errorType, Message: message})
}

// WriteJSON writes v as the JSON response body
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Headers are already sent; an encode failure can only be dropped
	_ = json.NewEncoder(w).Encode(v)
}

// maxBodyBytes bounds request bodies; posts are a few KB at most
const maxBodyBytes = 1 << 20

// DecodeJSON reads a size-limited JSON body into v and writes the error
// response itself when that fails. It reports whether decoding succeeded.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "RequestTooLarge", "Request body too large (max 1MB)")
			return false
		}
		WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return false
	}
	return true
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateBody runs struct tag validation and writes a 400 listing every
// failed field. It reports whether the body is valid.
func ValidateBody(w http.ResponseWriter, body interface{}) bool {
	err := validate.Struct(body)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return false
	}

	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "InvalidRequest",
		Message: "Request validation failed",
		Details: FormatValidationErrors(verrs),
	})
	return false
}

// FormatValidationErrors turns validator errors into one message per field
func FormatValidationErrors(verrs validator.ValidationErrors) []string {
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("field '%s' failed on the '%s' rule", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s (%s)", msg, fe.Param())
		}
		messages = append(messages, msg)
	}
	return messages
}

// QueryInt parses an optional integer query parameter.
// Missing values return def; malformed values return an error naming the parameter.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Newf("%s must be an integer", name)
	}
	return n, nil
}
