package shared

import (
	"errors"
	"fmt"
)

// RequestError is used when we want a specific error message and StatusCode.
// Handlers return the exact message inside the request error to the caller,
// so anything wrapped here must be safe to show.
//
// If the caller should see a generic message but the log should carry more
// detail, join a RequestError with the underlying error using errors.Join.
type RequestError struct {
	StatusCode int
	Err        error
}

func (r *RequestError) Error() string {
	return fmt.Sprintf("status %d: err %v", r.StatusCode, r.Err)
}

func (r *RequestError) Unwrap() error {
	return r.Err
}

var (
	ErrMissingAuth   = &RequestError{Err: errors.New("missing authorization header"), StatusCode: 401}
	ErrInvalidFormat = &RequestError{Err: errors.New("invalid authentication format"), StatusCode: 401}
	ErrUnauthorized  = &RequestError{Err: errors.New("unauthorized"), StatusCode: 401}

	ErrInvalidRequest  = &RequestError{Err: errors.New("invalid request body"), StatusCode: 400}
	ErrEmptyInput      = &RequestError{Err: errors.New("input is required"), StatusCode: 400}
	ErrInputTooLong    = &RequestError{Err: fmt.Errorf("input exceeds %d characters", MaxInputLength), StatusCode: 400}
	ErrNoInputAccepted = &RequestError{Err: errors.New("section does not accept input"), StatusCode: 400}
	ErrUnknownSection  = &RequestError{Err: errors.New("unknown section"), StatusCode: 404}

	ErrInternalServerError = &RequestError{Err: errors.New("internal server error"), StatusCode: 500}

	ErrFailedTokenReq         = &MetricsError{Msg: "failed to send identity token request", Code: "iam_http_err"}
	ErrFailedTokenReqFromCode = &MetricsError{Msg: "identity service responded with non-200", Code: "iam_http_status_err"}
	ErrMissingTokenField      = &MetricsError{Msg: "identity response missing access_token", Code: "iam_missing_token"}
	ErrFailedModelReq         = &MetricsError{Msg: "failed to send http request to model", Code: "model_http_err"}
	ErrFailedModelReqFromCode = &MetricsError{Msg: "model responded with non-200", Code: "model_http_status_err"}
	ErrFailedReadingResponse  = &MetricsError{Msg: "failed to read model response", Code: "model_response_err"}
	ErrMissingGeneratedText   = &MetricsError{Msg: "model response had no generated_text", Code: "model_no_text"}
	ErrFailedCacheRead        = &MetricsError{Msg: "failed to read answer cache", Code: "cache_read_err"}
	ErrFailedSaveLogs         = &MetricsError{Msg: "failed to save inference logs", Code: "save_inference_logs"}
)

type MetricsError struct {
	Msg  string
	Code string
}

func (m *MetricsError) Error() string {
	return m.String()
}

func (m *MetricsError) String() string {
	return m.Msg
}
