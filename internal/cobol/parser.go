// File path: internal/cobol/parser.go
package cobol

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
)

// UnknownProgramID is the sentinel assigned when no PROGRAM-ID clause is
// present in the source.
const UnknownProgramID = "UNKNOWN"

// DivisionNames lists the four COBOL divisions in canonical order; each is
// always a key of ProgramInfo.Divisions, empty when the division is absent.
var DivisionNames = []string{"IDENTIFICATION", "ENVIRONMENT", "DATA", "PROCEDURE"}

var (
	programIDRe = regexp.MustCompile(`PROGRAM-ID\.\s*([A-Z0-9-]+)`)

	divisionHeaderRes = map[string]*regexp.Regexp{
		"IDENTIFICATION": regexp.MustCompile(`IDENTIFICATION\s+DIVISION\.`),
		"ENVIRONMENT":    regexp.MustCompile(`ENVIRONMENT\s+DIVISION\.`),
		"DATA":           regexp.MustCompile(`DATA\s+DIVISION\.`),
		"PROCEDURE":      regexp.MustCompile(`PROCEDURE\s+DIVISION\.`),
	}
	nextDivisionRe = regexp.MustCompile(`\n\s*[A-Z]+\s+DIVISION\.`)

	dataItemRe = regexp.MustCompile(`(?m)^\s*(\d{2})\s+([A-Z0-9-]+).*?PIC\s+([A-Z0-9()]+)`)

	procedureBodyRe = regexp.MustCompile(`(?s)PROCEDURE\s+DIVISION\.(.*)`)
	paragraphRe     = regexp.MustCompile(`(?m)^\s*([A-Z0-9-]+)\.\s*$`)

	// Matched in this order; output ordering is pattern priority, not
	// source position. Synthesis truncates to the first five entries, so
	// conditional logic outranks data movement.
	businessLogicRes = []*regexp.Regexp{
		regexp.MustCompile(`(?s)IF\s+.*?THEN.*?(?:END-IF|\.)`),
		regexp.MustCompile(`(?s)PERFORM\s+.*?UNTIL.*?`),
		regexp.MustCompile(`(?s)COMPUTE\s+.*?=.*?\.`),
		regexp.MustCompile(`(?s)MOVE\s+.*?TO.*?\.`),
		regexp.MustCompile(`(?s)ADD\s+.*?TO.*?\.`),
		regexp.MustCompile(`(?s)SUBTRACT\s+.*?FROM.*?\.`),
	}

	fileOperationRes = []*regexp.Regexp{
		regexp.MustCompile(`OPEN\s+(INPUT|OUTPUT|I-O|EXTEND)\s+([A-Z0-9-]+)`),
		regexp.MustCompile(`READ\s+([A-Z0-9-]+)`),
		regexp.MustCompile(`WRITE\s+([A-Z0-9-]+)`),
		regexp.MustCompile(`CLOSE\s+([A-Z0-9-]+)`),
	}
)

// Parser extracts the structural skeleton of a COBOL program. The zero
// value is ready to use.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse analyzes raw source bytes. Invalid UTF-8 sequences are dropped and
// the text is uppercased before any matching; every extractor operates on
// the normalized form. Zero recovered facts is a normal result.
func (p *Parser) Parse(ctx context.Context, path string, data []byte) (*ProgramInfo, error) {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
	content := Normalize(data)
	info := &ProgramInfo{
		FilePath:       path,
		FileName:       filepath.Base(path),
		ProgramID:      extractProgramID(content),
		Divisions:      extractDivisions(content),
		DataItems:      extractDataItems(content),
		Procedures:     extractProcedures(content),
		BusinessLogic:  extractBusinessLogic(content),
		FileOperations: extractFileOperations(content),
		Comments:       extractComments(content),
	}
	return info, nil
}

// Normalize applies the lossy decode and uppercase step shared by every
// extractor.
func Normalize(data []byte) string {
	return strings.ToUpper(strings.ToValidUTF8(string(data), ""))
}

func extractProgramID(content string) string {
	match := programIDRe.FindStringSubmatch(content)
	if len(match) < 2 {
		return UnknownProgramID
	}
	return match[1]
}

func extractDivisions(content string) map[string]string {
	divisions := make(map[string]string, len(DivisionNames))
	for _, name := range DivisionNames {
		divisions[name] = divisionSpan(content, name)
	}
	return divisions
}

// divisionSpan captures from the division header up to the next division
// header on a later line, or to end of text. PROCEDURE always runs to the
// end. A span reaching end of text sheds at most one trailing newline.
func divisionSpan(content, name string) string {
	loc := divisionHeaderRes[name].FindStringIndex(content)
	if loc == nil {
		return ""
	}
	tail := content[loc[0]:]
	if name != "PROCEDURE" {
		headerLen := loc[1] - loc[0]
		if next := nextDivisionRe.FindStringIndex(tail[headerLen:]); next != nil {
			return tail[:headerLen+next[0]]
		}
	}
	return strings.TrimSuffix(tail, "\n")
}

// extractDataItems keeps only declarations whose PIC clause sits on the
// same line; group headers such as 01 records carry no picture and are
// skipped by construction.
func extractDataItems(content string) []DataItem {
	matches := dataItemRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	items := make([]DataItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, DataItem{Level: m[1], Name: m[2], Picture: m[3]})
	}
	return items
}

// extractProcedures re-extracts the procedure body from the full text
// rather than reusing the division span, then collects paragraph labels in
// source order.
func extractProcedures(content string) []string {
	body := procedureBodyRe.FindStringSubmatch(content)
	if len(body) < 2 {
		return nil
	}
	var names []string
	for _, m := range paragraphRe.FindAllStringSubmatch(body[1], -1) {
		names = append(names, m[1])
	}
	return names
}

func extractBusinessLogic(content string) []string {
	var logic []string
	for _, re := range businessLogicRes {
		logic = append(logic, re.FindAllString(content, -1)...)
	}
	return logic
}

func extractFileOperations(content string) []string {
	var ops []string
	for _, re := range fileOperationRes {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if len(m) > 2 {
				ops = append(ops, m[1]+" "+m[2])
			} else {
				ops = append(ops, m[1])
			}
		}
	}
	return ops
}

// extractComments handles both fixed-format column-7 asterisks and
// free-format *> markers. A candidate survives only when its trimmed
// length exceeds ten characters, dropping separators and noise lines.
func extractComments(content string) []string {
	var comments []string
	for _, line := range strings.Split(content, "\n") {
		if len(line) > 6 && line[6] == '*' {
			if c := strings.TrimSpace(line[7:]); len(c) > 10 {
				comments = append(comments, c)
			}
		}
		if idx := strings.Index(line, "*>"); idx >= 0 {
			if c := strings.TrimSpace(line[idx+2:]); len(c) > 10 {
				comments = append(comments, c)
			}
		}
	}
	return comments
}
