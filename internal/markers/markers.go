// Package markers scans captured output for bracketed structured annotations
// and classifies them against a fixed taxonomy.
//
// Examples:
//
//	[OBJECTIVE] Loading data...
//	[STAT:mean] 0.95
//	[DATA] Shape: (100, 5)
package markers

import (
	"regexp"
	"strings"
)

// markerRegex matches a line that, after leading whitespace, opens with a
// bracketed uppercase token, an optional ":subtype", then free-form content.
var markerRegex = regexp.MustCompile(`^\s*\[([A-Z][A-Z0-9_-]*)(?::([^\]]+))?\]\s*(.*)$`)

// categories is the fixed marker taxonomy. Extend by adding entries, not by
// branching logic.
var categories = map[string]string{
	// Research process
	"OBJECTIVE":   "research_process",
	"HYPOTHESIS":  "research_process",
	"EXPERIMENT":  "research_process",
	"OBSERVATION": "research_process",
	"ANALYSIS":    "research_process",
	"CONCLUSION":  "research_process",
	// Data operations
	"DATA":    "data_operations",
	"SHAPE":   "data_operations",
	"DTYPE":   "data_operations",
	"RANGE":   "data_operations",
	"MISSING": "data_operations",
	"MEMORY":  "data_operations",
	// Calculations
	"CALC":   "calculations",
	"METRIC": "calculations",
	"STAT":   "calculations",
	"CORR":   "calculations",
	// Artifacts
	"PLOT":     "artifacts",
	"ARTIFACT": "artifacts",
	"TABLE":    "artifacts",
	"FIGURE":   "artifacts",
	// Insights
	"FINDING": "insights",
	"INSIGHT": "insights",
	"PATTERN": "insights",
	// Workflow
	"STEP":       "workflow",
	"STAGE":      "workflow",
	"CHECKPOINT": "workflow",
	"CHECK":      "workflow",
	"INFO":       "workflow",
	"WARNING":    "workflow",
	"ERROR":      "workflow",
	"DEBUG":      "workflow",
	// Scientific
	"CITATION":   "scientific",
	"LIMITATION": "scientific",
	"NEXT_STEP":  "scientific",
	"DECISION":   "scientific",
}

// CategoryUnknown classifies marker types absent from the taxonomy.
const CategoryUnknown = "unknown"

// Marker is one classified annotation found in output text.
type Marker struct {
	Type       string `json:"type"`
	Subtype    string `json:"subtype,omitempty"`
	Content    string `json:"content"`
	LineNumber int    `json:"line_number"`
	Category   string `json:"category"`
	Valid      bool   `json:"valid"`
}

// Parse extracts markers from text in document order. Line numbers are
// 1-indexed relative to the scanned text. Unmatched types are retained with
// category "unknown" and valid=false, never dropped.
func Parse(text string) []Marker {
	markers := []Marker{}
	if text == "" {
		return markers
	}

	for i, line := range strings.Split(text, "\n") {
		m := markerRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		// Hyphens normalize to underscores before taxonomy lookup
		markerType := strings.ReplaceAll(m[1], "-", "_")

		category, known := categories[markerType]
		if !known {
			category = CategoryUnknown
		}

		markers = append(markers, Marker{
			Type:       markerType,
			Subtype:    m[2],
			Content:    strings.TrimSpace(m[3]),
			LineNumber: i + 1,
			Category:   category,
			Valid:      known,
		})
	}

	return markers
}
