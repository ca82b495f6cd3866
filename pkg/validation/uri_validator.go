package validation

import (
	"net/url"
	"strings"

	apperrors "go-focus-evaluator/internal/errors"
)

// URIValidator handles stack location validation logic
type URIValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURIValidator accepts local paths, file, http, https and az URIs
func NewURIValidator() *URIValidator {
	return &URIValidator{
		allowedSchemes: []string{"file", "http", "https", "az"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURIValidatorWithOptions creates a URI validator with custom options
func NewURIValidatorWithOptions(schemes []string, hosts []string) *URIValidator {
	return &URIValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateStackURI validates if the provided URI can be fetched as a stack
func (v *URIValidator) ValidateStackURI(uri string) error {
	if strings.TrimSpace(uri) == "" {
		return apperrors.NewValidationError("URI cannot be empty", nil)
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return apperrors.NewValidationError("Invalid URI format", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	// plain paths, including Windows drive letters
	if len(scheme) <= 1 {
		scheme = "file"
	}

	if !v.isSchemeAllowed(scheme) {
		return apperrors.NewValidationError("URI scheme not allowed", nil)
	}

	switch scheme {
	case "file":
		return nil
	case "az":
		if parsed.Host == "" || strings.Trim(parsed.Path, "/") == "" {
			return apperrors.NewValidationError("az URI must name a container and a blob", nil)
		}
		return nil
	}

	if parsed.Host == "" {
		return apperrors.NewValidationError("URI must have a valid host", nil)
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsed.Hostname()) {
		return apperrors.NewValidationError("URI host not allowed", nil)
	}

	return nil
}

// isSchemeAllowed checks if the URI scheme is in the allowed list
func (v *URIValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URI host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *URIValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
