package sections

import (
	"strings"
	"testing"

	"healthai/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllOrder(t *testing.T) {
	var ids []ID
	for _, s := range All() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []ID{Home, Chat, Predict, Treatment}, ids)
}

func TestPromptTemplates(t *testing.T) {
	cases := map[ID]string{
		Chat:      "You are a healthcare assistant. Help the patient:\nI have a headache",
		Predict:   "A patient reports: I have a headache. Suggest possible conditions and actions.",
		Treatment: "Provide a complete treatment plan for I have a headache.",
	}
	for id, want := range cases {
		s, err := Lookup(string(id))
		require.NoError(t, err)
		got, err := s.Prompt("  I have a headache \n")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPromptRejections(t *testing.T) {
	home, err := Lookup("home")
	require.NoError(t, err)
	assert.False(t, home.HasInput())
	_, err = home.Prompt("hi")
	assert.ErrorIs(t, err, shared.ErrNoInputAccepted)

	chat, err := Lookup("chat")
	require.NoError(t, err)
	_, err = chat.Prompt("   ")
	assert.ErrorIs(t, err, shared.ErrEmptyInput)

}

func TestPromptLengthLimitCountsCharacters(t *testing.T) {
	chat, err := Lookup("chat")
	require.NoError(t, err)

	cases := []struct {
		name  string
		input string
		err   error
	}{
		{"ascii at limit", strings.Repeat("a", shared.MaxInputLength), nil},
		{"ascii over limit", strings.Repeat("a", shared.MaxInputLength+1), shared.ErrInputTooLong},
		{"devanagari at limit", strings.Repeat("ज", shared.MaxInputLength), nil},
		{"devanagari over limit", strings.Repeat("ज", shared.MaxInputLength+1), shared.ErrInputTooLong},
		{"emoji at limit", strings.Repeat("🤒", shared.MaxInputLength), nil},
		{"short multibyte", strings.Repeat("ज्वर", 500), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prompt, err := chat.Prompt(tc.input)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, prompt, tc.input)
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("billing")
	assert.ErrorIs(t, err, shared.ErrUnknownSection)
}

func TestAllReturnsCopy(t *testing.T) {
	s := All()
	s[0].Title = "changed"
	assert.NotEqual(t, "changed", All()[0].Title)
}
