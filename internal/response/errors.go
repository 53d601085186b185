package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound       ErrCode = "NOT_FOUND"
	ErrDuplicatePhone ErrCode = "DUPLICATE_PHONE"

	// ─── Registrations ─────────────────────────────────────────────────
	ErrCapacityExceeded      ErrCode = "CAPACITY_EXCEEDED"
	ErrDuplicateRegistration ErrCode = "DUPLICATE_REGISTRATION"
	ErrScheduleConflict      ErrCode = "SCHEDULE_CONFLICT"

	// ─── Subscriptions ─────────────────────────────────────────────────
	ErrInactiveSubscription ErrCode = "INACTIVE_SUBSCRIPTION"
	ErrSessionsExhausted    ErrCode = "SESSIONS_EXHAUSTED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrTimeout  ErrCode = "TIMEOUT"
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrDuplicatePhone:
		return "Phone number already registered."

	// ─── Registrations ─────────────────────────────────────────────────
	case ErrCapacityExceeded:
		return "Class is full."
	case ErrDuplicateRegistration:
		return "Student already registered in this class."
	case ErrScheduleConflict:
		return "Schedule conflict with another class."

	// ─── Subscriptions ─────────────────────────────────────────────────
	case ErrInactiveSubscription:
		return "Subscription is not active."
	case ErrSessionsExhausted:
		return "No remaining sessions."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrTimeout:
		return "The request timed out. Please retry."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
