package postprocess

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain translation untouched",
			input:    "Talacowa kiso anini?",
			expected: "Talacowa kiso anini?",
		},
		{
			name:     "assistant label stripped",
			input:    "Assistant: Mahiyam kiso",
			expected: "Mahiyam kiso",
		},
		{
			name:     "stacked labels stripped",
			input:    "Assistant: Translation: Mahiyam",
			expected: "Mahiyam",
		},
		{
			name:     "amis tag stripped",
			input:    "[amis]: Kapah kako",
			expected: "Kapah kako",
		},
		{
			name:     "fullwidth colon label",
			input:    "Translation： Kapah kako",
			expected: "Kapah kako",
		},
		{
			name:     "thinking block removed",
			input:    "<think>先找主詞</think>Malahecad kami",
			expected: "Malahecad kami",
		},
		{
			name:     "truncated thinking removed",
			input:    "Mahiyam<thinking>now let me",
			expected: "Mahiyam",
		},
		{
			name:     "instruction echo removed",
			input:    "Here is the translation: Mahiyam kiso",
			expected: "Mahiyam kiso",
		},
		{
			name:     "quote wrapping removed",
			input:    `"Talacowa kiso?"`,
			expected: "Talacowa kiso?",
		},
		{
			name:     "cjk quote wrapping removed",
			input:    "「Talacowa kiso?」",
			expected: "Talacowa kiso?",
		},
		{
			name:     "interior colon untouched",
			input:    "O maan: ko nika?",
			expected: "O maan: ko nika?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRemoveRoleLabels_NoLoopOnPlainText(t *testing.T) {
	// A label without trailing text must terminate and yield empty output.
	if got := removeRoleLabels("Assistant:"); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
