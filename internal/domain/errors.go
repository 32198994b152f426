package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidPlan  = errors.New("invalid plan")
)

// ErrorKind classifies failures that can leave the redesign workflow.
type ErrorKind string

const (
	KindQuotaExceeded        ErrorKind = "quota_exceeded"
	KindGenerationBlocked    ErrorKind = "generation_blocked"
	KindGenerationEmpty      ErrorKind = "generation_empty"
	KindValidationFailed     ErrorKind = "validation_failed"
	KindValidatorUnavailable ErrorKind = "validator_unavailable"
	KindUploadFailed         ErrorKind = "upload_failed"
	KindSuperseded           ErrorKind = "superseded"
	KindInvalid              ErrorKind = "invalid_request"
	KindUnclassified         ErrorKind = "unclassified"
)

// Error is the typed error carried across the workflow boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	// Limit is set for KindQuotaExceeded.
	Limit int
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds a workflow error of the given kind.
func NewError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// QuotaExceeded reports that the account used its whole monthly allowance.
func QuotaExceeded(limit int) *Error {
	return &Error{
		Kind:    KindQuotaExceeded,
		Message: fmt.Sprintf("monthly redesign limit of %d reached", limit),
		Limit:   limit,
	}
}

// KindOf returns the kind of err, or KindUnclassified for foreign errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnclassified
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

var (
	apiKeyQueryPattern = regexp.MustCompile(`(?i)(key|token|secret|password)=[^&\s"']+`)
	googleKeyPattern   = regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`)
	bearerPattern      = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._\-]+`)
	urlPattern         = regexp.MustCompile(`https?://[^\s"']+`)
	jsonBodyPattern    = regexp.MustCompile(`\{.*\}`)
)

const maxSanitizedLength = 200

// Sanitize turns arbitrary error text into something safe to show to a user:
// credentials, URLs and raw provider bodies are removed and the result is
// truncated.
func Sanitize(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	if idx := strings.Index(msg, "\n"); idx >= 0 {
		msg = msg[:idx]
	}
	msg = googleKeyPattern.ReplaceAllString(msg, "[redacted]")
	msg = apiKeyQueryPattern.ReplaceAllString(msg, "$1=[redacted]")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer [redacted]")
	msg = urlPattern.ReplaceAllString(msg, "[url]")
	msg = jsonBodyPattern.ReplaceAllString(msg, "[details omitted]")
	msg = strings.Join(strings.Fields(msg), " ")
	if len(msg) > maxSanitizedLength {
		msg = strings.TrimSpace(msg[:maxSanitizedLength]) + "…"
	}
	return msg
}

// UserMessage returns the user-facing message for a terminal workflow error.
func UserMessage(err error) string {
	var de *Error
	if !errors.As(err, &de) {
		return "Something went wrong while creating your redesign. Please try again."
	}
	switch de.Kind {
	case KindQuotaExceeded:
		return fmt.Sprintf("You have used all %d redesigns for this month.", de.Limit)
	case KindValidationFailed:
		return "We couldn't produce a redesign that matched your request. Try selecting fewer styles."
	case KindGenerationBlocked:
		if reason := Sanitize(de.Message); reason != "" {
			return "The image service declined this photo: " + reason
		}
		return "The image service declined this photo."
	case KindSuperseded:
		return "This redesign was replaced by a newer request."
	case KindInvalid:
		return Sanitize(de.Message)
	default:
		return "Something went wrong while creating your redesign. Please try again."
	}
}
