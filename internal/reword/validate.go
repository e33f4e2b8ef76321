package reword

import (
	"fmt"
	"strings"
)

// Validation is the verdict on a proposed commit message.
type Validation struct {
	Valid   bool
	Problem string // why the message cannot be used; empty when Valid
	Warning string // advisory only, e.g. a long subject line
}

// Selection is the staged changes choice at the time of validation.
type Selection struct {
	HasStaged bool
	Include   bool // fold staged changes into the amended commit
	Initial   bool // Include as first offered to the user
}

// Changed reports whether the user moved the include toggle away from its
// initial state. Without staged changes there is nothing to toggle.
func (s Selection) Changed() bool {
	return s.HasStaged && s.Include != s.Initial
}

// Validate checks a proposed message against the current one. A change is
// required: either the text differs, or the staged selection differs from
// the one first offered. The message is trimmed before comparison. A
// subject longer than maxSubject produces a warning but stays valid.
func Validate(text, original string, sel Selection, maxSubject int) Validation {
	text = strings.TrimSpace(text)
	if text == "" {
		return Validation{Problem: "Commit message must not be empty."}
	}

	messageChanged := text != strings.TrimSpace(original)
	if !messageChanged && !sel.Changed() {
		return Validation{Problem: "Adjust the commit message or staged selection before confirming."}
	}

	v := Validation{Valid: true}
	subject, _, _ := strings.Cut(text, "\n")
	if maxSubject > 0 && len([]rune(subject)) > maxSubject {
		v.Warning = fmt.Sprintf("First line should not exceed %d characters (currently %d)", maxSubject, len([]rune(subject)))
	}
	return v
}

// ValidationError is returned by Amend when the message is rejected.
type ValidationError struct {
	Problem string
}

func (e *ValidationError) Error() string {
	return e.Problem
}
