// File path: internal/cobol/parser_test.go
package cobol

import (
	"strings"
	"testing"
)

func TestParsePayrollProgram(t *testing.T) {
	src := []byte(`IDENTIFICATION DIVISION.
PROGRAM-ID. PAYROLL01.
      * CALCULATES EMPLOYEE NET PAY EACH CYCLE
ENVIRONMENT DIVISION.
INPUT-OUTPUT SECTION.
DATA DIVISION.
WORKING-STORAGE SECTION.
01 EMPLOYEE-REC.
   05 EMP-NAME PIC X(30).
   05 EMP-RATE PIC 9(5)V99.
PROCEDURE DIVISION.
MAIN-PARA.
    OPEN INPUT EMPLOYEE-FILE
    READ EMPLOYEE-FILE
    PERFORM PAY-LOOP UNTIL EOF-FLAG = 'Y'
    CLOSE EMPLOYEE-FILE
    STOP RUN.
PAY-LOOP.
    COMPUTE GROSS-PAY = EMP-RATE * HOURS.
    IF GROSS-PAY > 1000 THEN ADD BONUS TO GROSS-PAY END-IF
    MOVE GROSS-PAY TO OUT-PAY. *> WRITES THE NET PAY LINE
    WRITE PAY-LINE.
`)

	parser := NewParser()
	info, err := parser.Parse(nil, "/jobs/payroll01.cbl", src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if info.ProgramID != "PAYROLL01" {
		t.Fatalf("unexpected program id: %s", info.ProgramID)
	}
	if info.FileName != "payroll01.cbl" {
		t.Fatalf("unexpected file name: %s", info.FileName)
	}
	for _, name := range DivisionNames {
		if info.Divisions[name] == "" {
			t.Fatalf("expected %s division span", name)
		}
	}
	if strings.Contains(info.Divisions["IDENTIFICATION"], "ENVIRONMENT DIVISION.") {
		t.Fatalf("identification span crosses into next division")
	}
	if !strings.HasSuffix(info.Divisions["PROCEDURE"], "WRITE PAY-LINE.") {
		t.Fatalf("procedure span should run to end of text, got %q", info.Divisions["PROCEDURE"])
	}

	if len(info.DataItems) != 2 {
		t.Fatalf("expected 2 data items, got %d: %v", len(info.DataItems), info.DataItems)
	}
	if info.DataItems[0] != (DataItem{Level: "05", Name: "EMP-NAME", Picture: "X(30)"}) {
		t.Fatalf("unexpected first data item: %+v", info.DataItems[0])
	}
	if info.DataItems[1] != (DataItem{Level: "05", Name: "EMP-RATE", Picture: "9(5)V99"}) {
		t.Fatalf("unexpected second data item: %+v", info.DataItems[1])
	}

	if len(info.Procedures) != 2 || info.Procedures[0] != "MAIN-PARA" || info.Procedures[1] != "PAY-LOOP" {
		t.Fatalf("unexpected procedures: %v", info.Procedures)
	}

	if len(info.BusinessLogic) != 5 {
		t.Fatalf("expected 5 business logic entries, got %d: %v", len(info.BusinessLogic), info.BusinessLogic)
	}
	wantPrefixes := []string{"IF ", "PERFORM ", "COMPUTE ", "MOVE ", "ADD "}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(info.BusinessLogic[i], prefix) {
			t.Fatalf("business logic[%d] = %q, want prefix %q", i, info.BusinessLogic[i], prefix)
		}
	}
	if info.BusinessLogic[1] != "PERFORM PAY-LOOP UNTIL" {
		t.Fatalf("perform match should end at UNTIL, got %q", info.BusinessLogic[1])
	}

	wantOps := []string{"INPUT EMPLOYEE-FILE", "EMPLOYEE-FILE", "PAY-LINE", "EMPLOYEE-FILE"}
	if len(info.FileOperations) != len(wantOps) {
		t.Fatalf("unexpected file operations: %v", info.FileOperations)
	}
	for i, want := range wantOps {
		if info.FileOperations[i] != want {
			t.Fatalf("file operation[%d] = %q, want %q", i, info.FileOperations[i], want)
		}
	}

	wantComments := []string{
		"CALCULATES EMPLOYEE NET PAY EACH CYCLE",
		"WRITES THE NET PAY LINE",
	}
	if len(info.Comments) != len(wantComments) {
		t.Fatalf("unexpected comments: %v", info.Comments)
	}
	for i, want := range wantComments {
		if info.Comments[i] != want {
			t.Fatalf("comment[%d] = %q, want %q", i, info.Comments[i], want)
		}
	}
}

func TestParseProgramIDFallsBackToUnknown(t *testing.T) {
	info, err := NewParser().Parse(nil, "fragment.cbl", []byte("DISPLAY 'HELLO'.\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if info.ProgramID != UnknownProgramID {
		t.Fatalf("expected %s, got %s", UnknownProgramID, info.ProgramID)
	}
	if !info.Empty() {
		t.Fatalf("expected empty extraction: %+v", info)
	}
}

func TestParseLowercaseSourceIsNormalized(t *testing.T) {
	info, err := NewParser().Parse(nil, "lower.cbl", []byte("identification division.\nprogram-id. lower01.\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if info.ProgramID != "LOWER01" {
		t.Fatalf("expected LOWER01, got %s", info.ProgramID)
	}
	if info.Divisions["IDENTIFICATION"] == "" {
		t.Fatalf("expected identification span after normalization")
	}
}

func TestParseMissingDivisionsYieldEmptySpans(t *testing.T) {
	src := []byte("IDENTIFICATION DIVISION.\nPROGRAM-ID. TEST01.\nPROCEDURE DIVISION.\nMAIN.\n    STOP RUN.\n")
	info, err := NewParser().Parse(nil, "test01.cbl", src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if info.Divisions["ENVIRONMENT"] != "" || info.Divisions["DATA"] != "" {
		t.Fatalf("expected empty spans for absent divisions: %v", info.Divisions)
	}
	if info.Divisions["IDENTIFICATION"] == "" || info.Divisions["PROCEDURE"] == "" {
		t.Fatalf("expected spans for present divisions: %v", info.Divisions)
	}
	if strings.HasSuffix(info.Divisions["PROCEDURE"], "\n") {
		t.Fatalf("span should shed the trailing newline: %q", info.Divisions["PROCEDURE"])
	}
}

func TestDataItemsRequirePictureClause(t *testing.T) {
	src := []byte("01 CUSTOMER-REC.\n05 NAME PIC X(30).\n05 AGE PIC 9(3).\n")
	info, err := NewParser().Parse(nil, "customer.cbl", src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []DataItem{
		{Level: "05", Name: "NAME", Picture: "X(30)"},
		{Level: "05", Name: "AGE", Picture: "9(3)"},
	}
	if len(info.DataItems) != len(want) {
		t.Fatalf("expected %d data items, got %v", len(want), info.DataItems)
	}
	for i, item := range want {
		if info.DataItems[i] != item {
			t.Fatalf("data item[%d] = %+v, want %+v", i, info.DataItems[i], item)
		}
	}
}

func TestCommentFilterDropsShortCandidates(t *testing.T) {
	src := []byte(`      * SHORT
      * THIS COMMENT IS LONG ENOUGH TO KEEP
MOVE A TO B. *> NO
ADD X TO Y. *> VALIDATES THE DAILY INPUT
SUBTRACT D FROM E. *> ABCDEFGHIJ
`)
	info, err := NewParser().Parse(nil, "comments.cbl", src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []string{
		"THIS COMMENT IS LONG ENOUGH TO KEEP",
		"VALIDATES THE DAILY INPUT",
	}
	if len(info.Comments) != len(want) {
		t.Fatalf("unexpected comments: %v", info.Comments)
	}
	for i, c := range want {
		if info.Comments[i] != c {
			t.Fatalf("comment[%d] = %q, want %q", i, info.Comments[i], c)
		}
	}
}

func TestBusinessLogicOrderedByPatternPriority(t *testing.T) {
	src := []byte("PROCEDURE DIVISION.\nCOMPUTE TOTAL-DUE = RATE * HOURS.\nIF TOTAL-DUE > LIMIT THEN MOVE LIMIT TO TOTAL-DUE.\n")
	info, err := NewParser().Parse(nil, "priority.cbl", src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(info.BusinessLogic) != 3 {
		t.Fatalf("expected 3 entries, got %v", info.BusinessLogic)
	}
	// The COMPUTE precedes the IF in source but must sort after it.
	if !strings.HasPrefix(info.BusinessLogic[0], "IF ") {
		t.Fatalf("expected IF first, got %q", info.BusinessLogic[0])
	}
	if !strings.HasPrefix(info.BusinessLogic[1], "COMPUTE ") {
		t.Fatalf("expected COMPUTE second, got %q", info.BusinessLogic[1])
	}
	if !strings.HasPrefix(info.BusinessLogic[2], "MOVE ") {
		t.Fatalf("expected MOVE third, got %q", info.BusinessLogic[2])
	}
}
