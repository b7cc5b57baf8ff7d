package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput        = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInvalidState        = "INVALID_TRANSITION"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeDuplicateRecord     = "DUPLICATE_RECORD"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"

	// Server errors (5xx)
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
