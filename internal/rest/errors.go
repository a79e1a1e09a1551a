package rest

import "fmt"

// notFoundErrorType is the machine-readable category the server reports
// for point lookups that match nothing. It is special-cased into
// types.ErrRecordNotFound; every other 4xx category surfaces as a
// RequestError.
const notFoundErrorType = "MODEL_ID_NOT_FOUND"

// RequestError is a server-reported request failure, preserving the
// server's message and machine-readable error category.
type RequestError struct {
	Type       string
	Message    string
	StatusCode int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed (%d %s): %s", e.StatusCode, e.Type, e.Message)
}

// wireError is the error envelope of a 4xx response body.
type wireError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
