// Package sections defines the four pages a user can visit and the
// instruction each one wraps around the user's text.
package sections

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"healthai/internal/shared"
)

type ID string

const (
	Home      ID = "home"
	Chat      ID = "chat"
	Predict   ID = "predict"
	Treatment ID = "treatment"
)

type Section struct {
	ID      ID     `json:"id"`
	Nav     string `json:"nav"`
	Title   string `json:"title"`
	Label   string `json:"label,omitempty"`
	Spinner string `json:"spinner,omitempty"`
	Body    string `json:"body,omitempty"`

	// template has exactly one %s for the user's input. Empty means the
	// section takes no input.
	template string
}

func (s Section) HasInput() bool {
	return s.template != ""
}

// Prompt wraps input in the section's instruction.
func (s Section) Prompt(input string) (string, error) {
	if !s.HasInput() {
		return "", shared.ErrNoInputAccepted
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return "", shared.ErrEmptyInput
	}
	if utf8.RuneCountInString(input) > shared.MaxInputLength {
		return "", shared.ErrInputTooLong
	}
	return fmt.Sprintf(s.template, input), nil
}

var all = []Section{
	{
		ID:    Home,
		Nav:   "🏠 Home",
		Title: "🏠 Welcome to HealthAI",
		Body:  "Powered by IBM WatsonX + Granite model",
	},
	{
		ID:       Chat,
		Nav:      "🗣️ Patient Chat",
		Title:    "🧠 Patient Chat",
		Label:    "Ask your medical question:",
		Spinner:  "Thinking...",
		template: "You are a healthcare assistant. Help the patient:\n%s",
	},
	{
		ID:       Predict,
		Nav:      "🔍 Disease Prediction",
		Title:    "🔍 Disease Predictor",
		Label:    "List your symptoms:",
		Spinner:  "Analyzing...",
		template: "A patient reports: %s. Suggest possible conditions and actions.",
	},
	{
		ID:       Treatment,
		Nav:      "💊 Treatment Plan",
		Title:    "💊 Treatment Planner",
		Label:    "Enter diagnosed condition:",
		Spinner:  "Generating plan...",
		template: "Provide a complete treatment plan for %s.",
	},
}

// All returns the sections in navigation order.
func All() []Section {
	out := make([]Section, len(all))
	copy(out, all)
	return out
}

func Lookup(id string) (Section, error) {
	for _, s := range all {
		if string(s.ID) == id {
			return s, nil
		}
	}
	return Section{}, shared.ErrUnknownSection
}
