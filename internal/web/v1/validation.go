package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// sanitizeValidationError returns a client-safe message for a bind error.
// Decoder internals and Go type names never reach the response.
func sanitizeValidationError(err error) string {
	if err == nil {
		return ""
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return "Request body is required"
	case errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &syntaxErr):
		return "Malformed JSON body"
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return fmt.Sprintf("Field %q has the wrong type", typeErr.Field)
	}

	msg := err.Error()
	if strings.Contains(msg, "Key:") || strings.Contains(msg, "Error:") || len(msg) >= 100 {
		return "Invalid request"
	}
	return msg
}
