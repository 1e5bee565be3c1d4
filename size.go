package hashdoc

import (
	"fmt"
	"math"
	"strconv"
)

// MaxTokenLength is the token ceiling in characters, a common denominator of
// browser URL-length limits.
const MaxTokenLength = 2_000_000

// WarnPercent is the share of the ceiling above which a token is reported as
// StatusWarning.
const WarnPercent = 80

// Status classifies a token length against the ceiling. Values are ordered by
// severity.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	if s < StatusOK || s > StatusError {
		return nil, fmt.Errorf("hashdoc: invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ok":
		*s = StatusOK
	case "warning":
		*s = StatusWarning
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("hashdoc: invalid status %q", b)
	}
	return nil
}

// Classify reports the status of a token of length n against MaxTokenLength.
func Classify(n int) Status {
	return ClassifyLimit(n, MaxTokenLength)
}

// ClassifyLimit is Classify against an arbitrary ceiling.
func ClassifyLimit(n, ceiling int) Status {
	if n > ceiling {
		return StatusError
	}
	// n > ceiling*WarnPercent/100 without the float.
	if n*100 > ceiling*WarnPercent {
		return StatusWarning
	}
	return StatusOK
}

var sizeUnits = [...]string{"Bytes", "KB", "MB", "GB"}

// FormatBytes renders n with a 1024 step, e.g. "0 Bytes", "1 KB", "1.5 KB".
func FormatBytes(n int) string {
	if n == 0 {
		return "0 Bytes"
	}
	if n < 0 {
		return "-" + FormatBytes(-n)
	}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

func compressionRatio(raw, compressed int) float64 {
	if raw <= 0 {
		return 0
	}
	return (1 - float64(compressed)/float64(raw)) * 100
}
