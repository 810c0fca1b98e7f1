package shared

// ErrorBody is the JSON shape returned for any RequestError.
type ErrorBody struct {
	Message string `json:"message"`
	Object  string `json:"object"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func NewErrorBody(err *RequestError) ErrorBody {
	return ErrorBody{
		Message: err.Err.Error(),
		Object:  "error",
		Type:    errorType(err.StatusCode),
		Code:    err.StatusCode,
	}
}

func errorType(status int) string {
	switch {
	case status == 401:
		return "Unauthorized"
	case status == 404:
		return "NotFound"
	case status >= 400 && status < 500:
		return "BadRequest"
	default:
		return "InternalError"
	}
}
