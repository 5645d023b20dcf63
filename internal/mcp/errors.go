package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/accord/internal/domain/activity"
	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/domain/obligation"
	"github.com/rpggio/accord/internal/domain/report"
	"github.com/rpggio/accord/internal/domain/user"
)

// ErrUnknownMethod is returned for methods the handler does not dispatch.
var ErrUnknownMethod = errors.New("unknown method")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

func invalidParams(err error) *APIError {
	return &APIError{Code: "INVALID_INPUT", Message: "invalid parameters", Details: err.Error()}
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: "METHOD_NOT_FOUND", Message: err.Error(), RecoveryHint: "List tools for the supported methods"}
	case errors.Is(err, obligation.ErrInvalidRecurrence):
		return &APIError{Code: "INVALID_RECURRENCE", Message: err.Error(), RecoveryHint: "Use daily weekdays or weekly times_per_week between 1 and 7"}
	case errors.Is(err, obligation.ErrTemplateNotFound):
		return &APIError{Code: "TEMPLATE_NOT_FOUND", Message: "obligation template not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, obligation.ErrNotOwner):
		return &APIError{Code: "NOT_OWNER", Message: "only the template owner may change it"}
	case errors.Is(err, instance.ErrInstanceNotFound):
		return &APIError{Code: "INSTANCE_NOT_FOUND", Message: "obligation instance not found", RecoveryHint: "List the week to get current instance IDs"}
	case errors.Is(err, instance.ErrNotOwner):
		return &APIError{Code: "NOT_OWNER", Message: "only the assignee may complete this obligation"}
	case errors.Is(err, contract.ErrContractNotFound):
		return &APIError{Code: "CONTRACT_NOT_FOUND", Message: "contract not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, contract.ErrAccessDenied):
		return &APIError{Code: "ACCESS_DENIED", Message: "not a participant of this contract"}
	case errors.Is(err, contract.ErrSoloNotAllowed):
		return &APIError{Code: "SOLO_NOT_ALLOWED", Message: "contracts need at least two participants"}
	case errors.Is(err, user.ErrUserNotFound):
		return &APIError{Code: "USER_NOT_FOUND", Message: "user not found"}
	case errors.Is(err, user.ErrUserExists):
		return &APIError{Code: "CONFLICT", Message: "user already exists"}
	case errors.Is(err, obligation.ErrInvalidInput),
		errors.Is(err, contract.ErrInvalidInput),
		errors.Is(err, instance.ErrInvalidInput),
		errors.Is(err, report.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, user.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}
