package response

import (
	"encoding/json"
	"net/http"

	domainerr "github.com/oily/oily-api/domain/error"
)

// Envelope is the body shape of every JSON response.
type Envelope struct {
	HTTPStatus int         `json:"httpStatus"`
	IsSuccess  bool        `json:"isSuccess"`
	Message    string      `json:"message"`
	Code       int         `json:"code"`
	Result     interface{} `json:"result"`
}

// WriteJSON encodes before writing the status, so an unencodable result is
// answered with the internal error envelope instead of an empty 200.
func WriteJSON(w http.ResponseWriter, statusCode int, envelope Envelope) {
	body, err := json.Marshal(envelope)
	if err != nil {
		status := domainerr.StatusOf(err)
		statusCode = status.HTTPStatus
		body, _ = json.Marshal(Envelope{
			HTTPStatus: status.HTTPStatus,
			IsSuccess:  false,
			Message:    status.Message,
			Code:       status.Code,
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(body, '\n'))
}

func Success(w http.ResponseWriter, statusCode int, message string, result interface{}) {
	WriteJSON(w, statusCode, Envelope{
		HTTPStatus: statusCode,
		IsSuccess:  true,
		Message:    message,
		Code:       statusCode,
		Result:     result,
	})
}

func OK(w http.ResponseWriter, result interface{}) {
	Success(w, http.StatusOK, "요청에 성공했습니다.", result)
}

// Failure renders err through the status catalog.
func Failure(w http.ResponseWriter, err error) {
	status := domainerr.StatusOf(err)
	WriteJSON(w, status.HTTPStatus, Envelope{
		HTTPStatus: status.HTTPStatus,
		IsSuccess:  false,
		Message:    status.Message,
		Code:       status.Code,
	})
}

func Unauthorized(w http.ResponseWriter) {
	Failure(w, domainerr.ErrAuthenticationRequired)
}

func Forbidden(w http.ResponseWriter) {
	Failure(w, domainerr.ErrAccessDenied)
}

func BadRequest(w http.ResponseWriter) {
	Failure(w, domainerr.ErrInvalidInput)
}
