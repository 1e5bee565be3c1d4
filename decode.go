package hashdoc

import "fmt"

// Decode reverses Encode and returns the original document byte for byte.
//
// Decode returns ErrEmpty if token is empty. Any other failure (unknown
// algorithm tag, characters outside the base64url alphabet, a truncated or
// altered stream, a declared size above Limits.MaxDecodedSize, a token longer
// than Limits.MaxTokenLength) matches ErrCorrupt. No partial document is ever
// returned.
func Decode(token string, opts ...DecodeOption) (string, error) {
	cfg := decodeConfig{limits: defaultLimits()}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()

	if token == "" {
		return "", ErrEmpty
	}
	if len(token) > cfg.limits.MaxTokenLength {
		return "", fmt.Errorf("%w: %w: token length %d", ErrCorrupt, ErrLimitExceeded, len(token))
	}
	alg, payload, err := unmarshalToken(token)
	if err != nil {
		return "", err
	}
	out, err := decompressPayload(alg, payload, cfg.limits.MaxDecodedSize)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
