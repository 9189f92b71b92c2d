// File path: internal/cobol/synthesize_test.go
package cobol

import "testing"

func TestSynthesizeRequirementTruncatesSections(t *testing.T) {
	info := &ProgramInfo{
		ProgramID: "BILLING02",
		BusinessLogic: []string{
			"L1", "L2", "L3", "L4", "L5", "L6", "L7",
		},
		DataItems: []DataItem{
			{Level: "05", Name: "A", Picture: "X"},
			{Level: "05", Name: "B", Picture: "X"},
			{Level: "05", Name: "C", Picture: "X"},
		},
		FileOperations: []string{"F1", "F2", "F3", "F4"},
		Comments:       []string{"C-ONE", "C-TWO", "C-THREE", "C-FOUR"},
	}
	want := "Program: BILLING02 | Business Logic: | L1 | L2 | L3 | L4 | L5 | " +
		"Processes 3 data items | File operations: F1 F2 F3 | " +
		"Requirements from comments: | C-ONE | C-TWO | C-THREE"
	got := SynthesizeRequirement(info)
	if got != want {
		t.Fatalf("unexpected digest:\n got %q\nwant %q", got, want)
	}
	if again := SynthesizeRequirement(info); again != got {
		t.Fatalf("digest not deterministic: %q vs %q", again, got)
	}
}

func TestSynthesizeRequirementOmitsEmptySections(t *testing.T) {
	info := &ProgramInfo{ProgramID: UnknownProgramID}
	if got := SynthesizeRequirement(info); got != "Program: UNKNOWN" {
		t.Fatalf("expected bare program label, got %q", got)
	}

	info = &ProgramInfo{
		ProgramID: "INV001",
		DataItems: []DataItem{{Level: "05", Name: "QTY", Picture: "9(4)"}},
	}
	want := "Program: INV001 | Processes 1 data items"
	if got := SynthesizeRequirement(info); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
