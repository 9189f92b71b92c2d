// File path: internal/cobol/synthesize.go
package cobol

import (
	"fmt"
	"strings"
)

// Truncation bounds keep the digest small enough to embed as a single
// vector regardless of program size.
const (
	maxLogicParts   = 5
	maxFileOpParts  = 3
	maxCommentParts = 3
)

// SynthesizeRequirement condenses a skeleton into the bounded digest that
// gets embedded and indexed. Pure function of its input: the same
// ProgramInfo always yields the same text. Sections for absent facts are
// omitted entirely; a fully empty extraction still yields the program
// label.
func SynthesizeRequirement(info *ProgramInfo) string {
	if info == nil {
		return "Program: " + UnknownProgramID
	}
	parts := []string{"Program: " + info.ProgramID}
	if len(info.BusinessLogic) > 0 {
		parts = append(parts, "Business Logic:")
		parts = append(parts, head(info.BusinessLogic, maxLogicParts)...)
	}
	if len(info.DataItems) > 0 {
		parts = append(parts, fmt.Sprintf("Processes %d data items", len(info.DataItems)))
	}
	if len(info.FileOperations) > 0 {
		parts = append(parts, "File operations: "+strings.Join(head(info.FileOperations, maxFileOpParts), " "))
	}
	if len(info.Comments) > 0 {
		parts = append(parts, "Requirements from comments:")
		parts = append(parts, head(info.Comments, maxCommentParts)...)
	}
	return strings.Join(parts, " | ")
}

func head(values []string, max int) []string {
	if len(values) <= max {
		return values
	}
	return values[:max]
}
