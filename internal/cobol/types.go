// File path: internal/cobol/types.go
package cobol

// DataItem is a working-storage or file-section declaration that carries a
// PIC clause. Level declarations without a picture (group headers) are not
// represented.
type DataItem struct {
	Level   string `json:"level"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ProgramInfo is the structural skeleton recovered from one COBOL source.
// All text fields hold the uppercase-normalized form of the source.
type ProgramInfo struct {
	FilePath       string            `json:"file_path"`
	FileName       string            `json:"file_name"`
	ProgramID      string            `json:"program_id"`
	Divisions      map[string]string `json:"divisions"`
	DataItems      []DataItem        `json:"data_items"`
	Procedures     []string          `json:"procedures"`
	BusinessLogic  []string          `json:"business_logic"`
	FileOperations []string          `json:"file_operations"`
	Comments       []string          `json:"comments"`
}

// Empty reports whether extraction recovered no structural facts at all.
// An empty extraction is a normal outcome, not an error; the digest is
// still synthesized and indexed.
func (p *ProgramInfo) Empty() bool {
	if p == nil {
		return true
	}
	if p.ProgramID != "" && p.ProgramID != UnknownProgramID {
		return false
	}
	if len(p.DataItems) > 0 || len(p.Procedures) > 0 || len(p.BusinessLogic) > 0 ||
		len(p.FileOperations) > 0 || len(p.Comments) > 0 {
		return false
	}
	for _, span := range p.Divisions {
		if span != "" {
			return false
		}
	}
	return true
}
