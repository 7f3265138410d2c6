package sandbox

import _ "embed"

//go:embed default.star
var defaultSource string

// DefaultSource returns the starting strategies document.
func DefaultSource() string {
	return defaultSource
}
