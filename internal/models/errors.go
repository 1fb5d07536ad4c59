package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL_ERROR"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeAccountInactive  = "ACCOUNT_INACTIVE"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Err == nil
}

// ErrPermissionDenied is the opaque rejection returned for every non-status failure of the
// authorization workflow.
var ErrPermissionDenied = &AppError{
	Code:    CodePermissionDenied,
	Message: "You are not allowed to join the guild",
}

// ErrRolesAlreadyAssigned is returned when roles are assigned to a member twice.
var ErrRolesAlreadyAssigned = errors.New("roles already assigned to member")

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewConflictError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// NewPermissionDeniedError wraps the cause of a rejection. The cause is kept for logs only.
func NewPermissionDeniedError(cause error) *AppError {
	return &AppError{
		Code:    CodePermissionDenied,
		Message: ErrPermissionDenied.Message,
		Err:     cause,
	}
}

// IsPermissionDenied reports whether err is a permission rejection.
func IsPermissionDenied(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodePermissionDenied
}

// AccountInactiveError is returned when a member's account status forbids linking.
// Reason is one of the AccountStatus reason strings.
type AccountInactiveError struct {
	Reason string
}

func (e *AccountInactiveError) Error() string {
	return "account is not active: " + e.Reason
}

// UserMessage returns the text shown to the member. Inactive accounts get their own message,
// every other reason shares the suspension text.
func (e *AccountInactiveError) UserMessage() string {
	if e.Reason == ReasonInactive {
		return "Your network account is inactive. Reactivate it before linking your chat account."
	}
	return "Your network account is suspended and cannot be linked."
}

// StatusFor maps an error to the HTTP status used by RespondWithError callers.
func StatusFor(err error) int {
	var inactive *AccountInactiveError
	if errors.As(err, &inactive) {
		return fiber.StatusForbidden
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeConflict:
		return fiber.StatusConflict
	case CodePermissionDenied:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var inactive *AccountInactiveError
	var appErr *AppError
	switch {
	case errors.As(err, &inactive):
		response = ErrorResponse{
			Error:  inactive.UserMessage(),
			Code:   CodeAccountInactive,
			Reason: inactive.Reason,
		}
	case errors.As(err, &appErr):
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		// Rejection causes and internal faults stay in the logs.
		if appErr.Err != nil && appErr.Code != CodePermissionDenied && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	default:
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
