package shifterrors

import (
	"net/http"

	"go-hrm/internal/shared/apperror"
)

var (
	ErrShiftNotFound = apperror.New(
		apperror.CodeNotFound,
		"shift not found",
		http.StatusNotFound,
	)
	ErrInvalidShiftID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid shift id",
		http.StatusBadRequest,
	)
	ErrInvalidClockTime = apperror.New(
		apperror.CodeInvalidInput,
		"invalid clock time, expected HH:MM",
		http.StatusBadRequest,
	)
	ErrShiftNameAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"shift name already exists",
		http.StatusConflict,
	)
)
