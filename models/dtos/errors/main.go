package errors

import (
	"denovo/pipeline/models/dtos"
	"net/http"
	"time"
)

/*
	Utility functions to facillitate returning error responses to HTTP clients
*/

func create(code int, message string) dtos.GeneralErrorResponseDto {
	return dtos.GeneralErrorResponseDto{
		Code:      code,
		Message:   http.StatusText(code),
		Timestamp: time.Now(),
		Errors: []dtos.GeneralError{
			{
				Message: message,
			},
		},
	}
}

func CreateSimpleBadRequest(message string) dtos.GeneralErrorResponseDto {
	return create(http.StatusBadRequest, message)
}

func CreateSimpleNotFound(message string) dtos.GeneralErrorResponseDto {
	return create(http.StatusNotFound, message)
}

func CreateSimpleInternalServerError(message string) dtos.GeneralErrorResponseDto {
	return create(http.StatusInternalServerError, message)
}
