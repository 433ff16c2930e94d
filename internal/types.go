package internal

import "time"

// TranslationRecord describes one completed translation, as persisted in the
// translation memory.
type TranslationRecord struct {
	ID        string    `json:"id"`
	Sentence  string    `json:"sentence"`
	Mode      string    `json:"mode"`
	Model     string    `json:"model"`
	Output    string    `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}
