// Package watsonx sends prompts to a watsonx.ai text generation endpoint.
package watsonx

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"healthai/internal/shared"
)

type InputMode string

const (
	// InputPlain sends the prompt as a bare "input" string.
	InputPlain InputMode = "plain"
	// InputChat sends the prompt as a single user message.
	InputChat InputMode = "chat"
)

const (
	DecodingGreedy = "greedy"
	DecodingSample = "sample"
)

// Decoding holds generation parameters. Nil pointers are omitted from the
// request.
type Decoding struct {
	Method       string
	MaxNewTokens int
	Temperature  *float64
	TopK         *int
	TopP         *float64
}

type Config struct {
	BaseURL   string
	Path      string
	Version   string
	InputMode InputMode
	ModelID   string
	ProjectID string
	Decoding  Decoding
}

// Preset names accepted by ConfigForPreset.
const (
	PresetInference      = "inference"
	PresetTextGeneration = "text-generation"
	PresetChat           = "chat"
)

// ConfigForPreset returns the request shape for one of the known endpoint
// variants. BaseURL, ModelID and ProjectID are left for the caller.
func ConfigForPreset(name string) (Config, error) {
	switch name {
	case PresetInference, "":
		return Config{
			Path:      "/v2/inference",
			InputMode: InputPlain,
			Decoding:  Decoding{Method: DecodingGreedy, MaxNewTokens: shared.DefaultMaxNewTokens},
		}, nil
	case PresetTextGeneration:
		return Config{
			Path:      "/ml/v1/text/generation",
			Version:   "2023-05-29",
			InputMode: InputPlain,
			Decoding:  Decoding{Method: DecodingGreedy, MaxNewTokens: shared.DefaultMaxNewTokens},
		}, nil
	case PresetChat:
		temp, topK, topP := 0.7, 50, 0.9
		return Config{
			Path:      "/ml/v1/text/generation",
			Version:   "2023-05-29",
			InputMode: InputChat,
			Decoding: Decoding{
				Method:       DecodingSample,
				MaxNewTokens: shared.DefaultMaxNewTokens,
				Temperature:  &temp,
				TopK:         &topK,
				TopP:         &topP,
			},
		}, nil
	default:
		return Config{}, fmt.Errorf("unknown watsonx preset %q", name)
	}
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = shared.DefaultWatsonxURL
	}
	if c.ModelID == "" {
		c.ModelID = shared.DefaultModelID
	}
	if c.InputMode == "" {
		c.InputMode = InputPlain
	}
	if c.Decoding.Method == "" {
		c.Decoding.Method = shared.DefaultDecodingMethod
	}
	if c.Decoding.MaxNewTokens == 0 {
		c.Decoding.MaxNewTokens = shared.DefaultMaxNewTokens
	}
	return c
}

func (c Config) validate() error {
	var errs []error
	if c.ProjectID == "" {
		errs = append(errs, errors.New("project id is required"))
	}
	if c.Path == "" {
		errs = append(errs, errors.New("endpoint path is required"))
	}
	if c.InputMode != InputPlain && c.InputMode != InputChat {
		errs = append(errs, fmt.Errorf("unknown input mode %q", c.InputMode))
	}
	if c.Decoding.Method != DecodingGreedy && c.Decoding.Method != DecodingSample {
		errs = append(errs, fmt.Errorf("unknown decoding method %q", c.Decoding.Method))
	}
	if c.Decoding.MaxNewTokens < 0 {
		errs = append(errs, errors.New("max new tokens must be positive"))
	}
	return errors.Join(errs...)
}

// Endpoint is the full URL requests are posted to.
func (c Config) Endpoint() (string, error) {
	u, err := url.Parse(strings.TrimSuffix(c.BaseURL, "/") + c.Path)
	if err != nil {
		return "", err
	}
	if c.Version != "" {
		q := u.Query()
		q.Set("version", c.Version)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
