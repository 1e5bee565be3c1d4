package hashdoc

import "fmt"

// Algorithm selects the compression transform applied before base64url.
// Its tag is the first character of every token.
type Algorithm byte

const (
	AlgNone   Algorithm = 'n'
	AlgBrotli Algorithm = 'b'
	AlgZstd   Algorithm = 'z'
	AlgLZ4    Algorithm = 'l'
	AlgFlate  Algorithm = 'f'
)

// Algorithms lists every supported algorithm in tag order.
var Algorithms = []Algorithm{AlgNone, AlgBrotli, AlgZstd, AlgLZ4, AlgFlate}

func (a Algorithm) String() string {
	switch a {
	case AlgNone:
		return "none"
	case AlgBrotli:
		return "brotli"
	case AlgZstd:
		return "zstd"
	case AlgLZ4:
		return "lz4"
	case AlgFlate:
		return "flate"
	default:
		return "unknown"
	}
}

// Valid reports whether a is one of the supported algorithms.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgNone, AlgBrotli, AlgZstd, AlgLZ4, AlgFlate:
		return true
	}
	return false
}

// ParseAlgorithm maps a name as returned by Algorithm.String back to its value.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range Algorithms {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

// Stats describes one encoding of a document.
type Stats struct {
	RawSize        int     `json:"raw_size"`
	CompressedSize int     `json:"compressed_size"`
	Ratio          float64 `json:"ratio"` // percent saved, negative when the token is larger than the input
	Status         Status  `json:"status"`
}

// Result is a successful encoding.
type Result struct {
	Token string
	Stats
}
