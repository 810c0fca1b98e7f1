package watsonx

import "encoding/json"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type parameters struct {
	DecodingMethod string   `json:"decoding_method"`
	MaxNewTokens   int      `json:"max_new_tokens"`
	Temperature    *float64 `json:"temperature,omitempty"`
	TopK           *int     `json:"top_k,omitempty"`
	TopP           *float64 `json:"top_p,omitempty"`
}

type generationRequest struct {
	ModelID    string        `json:"model_id"`
	Input      string        `json:"input,omitempty"`
	Messages   []chatMessage `json:"messages,omitempty"`
	Parameters parameters    `json:"parameters"`
	ProjectID  string        `json:"project_id"`
}

type generationResult struct {
	GeneratedText *string `json:"generated_text"`
}

type generationResponse struct {
	Results []generationResult `json:"results"`
}

// BuildRequest encodes prompt into the JSON body for the configured shape.
func (c Config) BuildRequest(prompt string) ([]byte, error) {
	req := generationRequest{
		ModelID:   c.ModelID,
		ProjectID: c.ProjectID,
		Parameters: parameters{
			DecodingMethod: c.Decoding.Method,
			MaxNewTokens:   c.Decoding.MaxNewTokens,
			Temperature:    c.Decoding.Temperature,
			TopK:           c.Decoding.TopK,
			TopP:           c.Decoding.TopP,
		},
	}
	switch c.InputMode {
	case InputChat:
		req.Messages = []chatMessage{{Role: "user", Content: prompt}}
	default:
		req.Input = prompt
	}
	return json.Marshal(req)
}

// extractText returns the first generated_text, or false if the body has none.
func extractText(body []byte) (string, bool) {
	var resp generationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false
	}
	if len(resp.Results) == 0 || resp.Results[0].GeneratedText == nil {
		return "", false
	}
	return *resp.Results[0].GeneratedText, true
}
