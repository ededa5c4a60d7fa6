package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
)

// decodeJSON parses a JSON request body into dst, rejecting unknown fields
// and trailing garbage so malformed payloads fail loudly at the boundary.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: unexpected trailing data")
	}
	return nil
}

// validateEmail checks the address shape and length. The stored form is
// always lowercase; callers normalize separately.
func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > 254 {
		return errors.New("email is too long")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("email must be a valid address")
	}
	if !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return errors.New("email must include a fully qualified domain")
	}
	return nil
}

// validateName bounds the optional profile name fields.
func validateName(field, value string) error {
	value = strings.TrimSpace(value)
	if len(value) < 3 || len(value) > 30 {
		return fmt.Errorf("%s must be between 3 and 30 characters", field)
	}
	return nil
}
