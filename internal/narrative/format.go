package narrative

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// InsufficientData replaces values that could not be computed.
const InsufficientData = "insufficient data"

// FormatFloat renders v with the given decimals and optional unit suffix.
func FormatFloat(v float64, unit string, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return InsufficientData
	}
	s := fmt.Sprintf("%.*f", decimals, v)
	if unit != "" {
		s += " " + unit
	}
	return s
}

// FormatPercentage renders a fraction in [0, 1] as a percentage.
func FormatPercentage(fraction float64, decimals int) string {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return InsufficientData
	}
	return fmt.Sprintf("%.*f%%", decimals, fraction*100)
}

// JSONBlock renders data as a titled fenced JSON block.
func JSONBlock(label string, data any) string {
	payload, err := json.MarshalIndent(data, "", "  ")
	var body string
	if err != nil {
		body = fmt.Sprint(data)
	} else {
		body = string(payload)
	}

	var sb strings.Builder
	sb.WriteString("### ")
	sb.WriteString(label)
	sb.WriteString("\n```json\n")
	sb.WriteString(body)
	sb.WriteString("\n```")
	return sb.String()
}
