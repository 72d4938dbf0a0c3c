package model

// DefaultBreakLabel is used for break rows without a label.
const DefaultBreakLabel = "Pause"

// CellStyle carries optional per-cell presentation hints from manual rows.
type CellStyle struct {
	BG      string   `json:"bg,omitempty"`
	Color   string   `json:"color,omitempty"`
	Border  string   `json:"border,omitempty"`
	BGAlpha *float64 `json:"bg_alpha,omitempty"`
}

// Row is one line of the rendered grid. A break row only carries Time and
// Label; a lesson row carries one cell per configured day.
type Row struct {
	Break      bool         `json:"break,omitempty"`
	Time       string       `json:"time"`
	Label      string       `json:"label,omitempty"`
	Start      string       `json:"start,omitempty"`
	End        string       `json:"end,omitempty"`
	Cells      []string     `json:"cells,omitempty"`
	CellStyles []*CellStyle `json:"cell_styles,omitempty"`
}

// NewBreakRow returns a break row.
func NewBreakRow(time, label string) Row {
	if label == "" {
		label = DefaultBreakLabel
	}
	return Row{Break: true, Time: time, Label: label}
}

// NewLessonRow returns a lesson row with exactly n cells; missing cells are
// empty and extra cells are dropped.
func NewLessonRow(time, start, end string, cells []string, n int) Row {
	out := make([]string, n)
	copy(out, cells)
	return Row{Time: time, Start: start, End: end, Cells: out}
}
