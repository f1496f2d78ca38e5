package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "single mention",
			content: "great point @alice",
			want:    []string{"alice"},
		},
		{
			name:    "multiple mentions keep first-appearance order",
			content: "@bob have you seen what @alice wrote? cc @carol",
			want:    []string{"bob", "alice", "carol"},
		},
		{
			name:    "duplicates collapse to one",
			content: "@alice @alice ping @alice",
			want:    []string{"alice"},
		},
		{
			name:    "email addresses are not mentions",
			content: "reach me at alice@example.com",
			want:    nil,
		},
		{
			name:    "too-short tokens are ignored",
			content: "hi @al and @a",
			want:    nil,
		},
		{
			name:    "punctuation ends the username",
			content: "thanks @alice.smith, well done (@bob_jones)!",
			want:    []string{"alice.smith", "bob_jones"},
		},
		{
			name:    "bare at sign",
			content: "meet @ noon",
			want:    nil,
		},
		{
			name:    "mention at start and end",
			content: "@alice talk to @bob",
			want:    []string{"alice", "bob"},
		},
		{
			name:    "case is preserved for exact lookup",
			content: "ping @Alice",
			want:    []string{"Alice"},
		},
		{
			name:    "empty content",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMentions(tt.content))
		})
	}
}
