package hashdoc

type encodeConfig struct {
	limits    Limits
	algorithm Algorithm
}

type EncodeOption func(*encodeConfig)

// WithAlgorithm selects the compression transform. Default is AlgBrotli.
func WithAlgorithm(a Algorithm) EncodeOption {
	return func(c *encodeConfig) { c.algorithm = a }
}

func WithLimits(l Limits) EncodeOption {
	return func(c *encodeConfig) { c.limits = l }
}

type decodeConfig struct {
	limits Limits
}

type DecodeOption func(*decodeConfig)

func WithDecodeLimits(l Limits) DecodeOption {
	return func(c *decodeConfig) { c.limits = l }
}

type imageConfig struct {
	limits ImageLimits
}

type ImageOption func(*imageConfig)

func WithImageLimits(l ImageLimits) ImageOption {
	return func(c *imageConfig) { c.limits = l }
}
