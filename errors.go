package hashdoc

import (
	"errors"
	"math"
	"strconv"
)

var (
	ErrEmpty            = errors.New("hashdoc: empty token")
	ErrCorrupt          = errors.New("hashdoc: corrupt token")
	ErrTooLarge         = errors.New("hashdoc: encoded document too large")
	ErrLimitExceeded    = errors.New("hashdoc: limit exceeded")
	ErrInvalidImage     = errors.New("hashdoc: invalid image")
	ErrUnknownPreset    = errors.New("hashdoc: unknown quality preset")
	ErrUnknownAlgorithm = errors.New("hashdoc: unknown algorithm")
)

// TooLargeError reports an encoded document whose token would exceed the
// URL ceiling. The token itself is discarded.
type TooLargeError struct {
	Stats Stats
	Limit int
}

func (e *TooLargeError) Error() string {
	return "hashdoc: encoded data is " + FormatBytes(e.Stats.CompressedSize) +
		", which exceeds the ~" + ceilingText(e.Limit) +
		" browser limit; try reducing image sizes or content length"
}

// ceilingText writes a character ceiling in decimal megabytes, "2MB" for
// MaxTokenLength.
func ceilingText(n int) string {
	if n < 1_000_000 {
		return FormatBytes(n)
	}
	return strconv.FormatFloat(math.Round(float64(n)/10_000)/100, 'f', -1, 64) + "MB"
}

func (e *TooLargeError) Is(target error) bool { return target == ErrTooLarge }
