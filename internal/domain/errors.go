package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Status: 403}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}

// Wagering-specific constructors.

// ErrInsufficientBalance discloses the current balance so the client can
// render a useful message.
func ErrInsufficientBalance(balance int64) *AppError {
	return &AppError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: fmt.Sprintf("insufficient balance: %d available", balance),
		Status:  400,
	}
}

func ErrRoundClosed(gameID string) *AppError {
	return &AppError{Code: "ROUND_CLOSED", Message: fmt.Sprintf("round %s is not accepting bets", gameID), Status: 400}
}

func ErrRoundSettled(gameID string) *AppError {
	return &AppError{Code: "ROUND_SETTLED", Message: fmt.Sprintf("round %s is already settled", gameID), Status: 400}
}

func ErrAlreadyClaimed() *AppError {
	return &AppError{Code: "ALREADY_CLAIMED", Message: "slip has already been claimed", Status: 400}
}

func ErrSlipCancelled() *AppError {
	return &AppError{Code: "SLIP_CANCELLED", Message: "slip has been cancelled", Status: 400}
}

func ErrActiveSessionExists() *AppError {
	return &AppError{Code: "ACTIVE_SESSION_EXISTS", Message: "an active session already exists for this user", Status: 403}
}

func ErrAccountNotActive(status UserStatus) *AppError {
	return &AppError{Code: "ACCOUNT_NOT_ACTIVE", Message: fmt.Sprintf("account is %s", status), Status: 403}
}

func ErrOverLimit(limit int64) *AppError {
	return &AppError{
		Code:    "OVER_LIMIT",
		Message: fmt.Sprintf("bet amount exceeds the per-card maximum of %d", limit),
		Status:  400,
	}
}
