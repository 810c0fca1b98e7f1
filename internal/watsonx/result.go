package watsonx

import "fmt"

type Kind int

const (
	KindText Kind = iota
	KindNoText
	KindHTTPError
	KindTransportError
	KindAuthError
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNoText:
		return "no_text"
	case KindHTTPError:
		return "http_error"
	case KindTransportError:
		return "transport_error"
	case KindAuthError:
		return "auth_error"
	default:
		return "unknown"
	}
}

// NoTextMessage is shown when the model answers 200 without any text.
const NoTextMessage = "⚠️ Model responded but no text was returned."

// Result is the outcome of one Generate call. Only KindText carries an answer;
// every other kind describes why there is none.
type Result struct {
	Kind       Kind
	Text       string
	StatusCode int
	Body       string
	Err        error
}

func (r *Result) OK() bool {
	return r.Kind == KindText
}

// Display renders the result as the string shown to the user.
func (r *Result) Display() string {
	switch r.Kind {
	case KindText:
		return r.Text
	case KindNoText:
		return NoTextMessage
	case KindHTTPError:
		return fmt.Sprintf("❌ Error: %d - %s", r.StatusCode, r.Body)
	default:
		return fmt.Sprintf("❌ Error: %v", r.Err)
	}
}
