// internal/analytics/parse.go
package analytics

import (
	"strconv"
	"strings"
)

// ParsedNumber is the tagged result of parsing a numeric field. Callers
// decide what an invalid value means; there is no implicit default-to-zero
// inside the parser.
type ParsedNumber struct {
	Value  float64
	Valid  bool
	Reason string
}

// ParseNumber parses a raw numeric field. Empty input and malformed input
// both come back invalid, each with its own reason; thousands separators
// are tolerated.
func ParseNumber(raw string) ParsedNumber {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ParsedNumber{Reason: "empty"}
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ParsedNumber{Reason: "not a number: " + raw}
	}
	return ParsedNumber{Value: v, Valid: true}
}

// OrZero applies the explicit default-to-zero policy at the call site.
func (p ParsedNumber) OrZero() float64 {
	if !p.Valid {
		return 0
	}
	return p.Value
}
