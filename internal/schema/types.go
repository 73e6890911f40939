// Package schema holds the target and source field collections for a
// settlement workspace. It is a pure data holder: reconciliation against
// the mapping collection lives in internal/mapping.
package schema

import "time"

// TargetType is the data type of a target (output) field.
type TargetType string

const (
	TargetText     TargetType = "Text"
	TargetDate     TargetType = "Date"
	TargetCurrency TargetType = "Currency"
	TargetNumber   TargetType = "Number"
)

// SourceType is the inferred data type of a source (input) column.
type SourceType string

const (
	SourceText    SourceType = "Text"
	SourceInteger SourceType = "Integer"
	SourceDate    SourceType = "Date"
	SourceFloat   SourceType = "Float"
)

// TargetField is one column of the desired normalized output schema.
// Identity is ID; all other attributes are user-editable.
type TargetField struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        TargetType `json:"type"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
}

// SourceField is a column discovered in an uploaded file, tagged with its
// origin so the UI can show where a mapped value comes from. Immutable once
// derived from a parsed file.
type SourceField struct {
	UniqueID       string     `json:"uniqueId"`
	Name           string     `json:"name"`
	Type           SourceType `json:"type"`
	Sample         string     `json:"sample"`
	OriginFileID   string     `json:"fileId"`
	OriginFileName string     `json:"fileName"`
	OriginSheet    string     `json:"sheetName"`
}

// ColumnField is one column of a parsed sheet, before origin tagging.
type ColumnField struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Type   SourceType `json:"type"`
	Sample string     `json:"sample"`
	Column string     `json:"column"`
}

// Sheet is one worksheet of a parsed file.
type Sheet struct {
	Name     string        `json:"name"`
	Fields   []ColumnField `json:"fields"`
	RowCount int           `json:"rowCount"`
}

// File is an uploaded, parsed source file.
type File struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       string    `json:"size"`
	SizeBytes  int64     `json:"sizeBytes"`
	RowCount   int       `json:"rowCount"`
	UploadedAt time.Time `json:"uploadedAt"`
	Sheets     []Sheet   `json:"sheets"`
}

// Patch is a partial update for a target field. Nil fields are left as-is.
type Patch struct {
	Name        *string     `json:"name"`
	Type        *TargetType `json:"type"`
	Description *string     `json:"description"`
	Icon        *string     `json:"icon"`
}
