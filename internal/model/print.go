package model

import "encoding/json"

// --- Print / Preview Structures ---

// PrintRequest is the body of /webaep/print. Exactly one of FormatName or
// FormatData is set.
type PrintRequest struct {
	FormatName string          `json:"formatName,omitempty"`
	FormatData json.RawMessage `json:"formatData,omitempty"`
	Quantity   int             `json:"quantity"`
	Data       map[string]any  `json:"data,omitempty"`
}

type PreviewRequest struct {
	FormatName string          `json:"formatName,omitempty"`
	FormatData json.RawMessage `json:"formatData,omitempty"`
	Data       map[string]any  `json:"data,omitempty"`
}

type PreviewResponse struct {
	Image string `json:"image"`
}

// TableQuery selects rows from an application table.
type TableQuery struct {
	Rows     int
	Offset   int
	Index    string
	SortBy   string
	Search   string
	Filter   string
	Distinct bool
	Columns  []string
}

type TableRow map[string]any
