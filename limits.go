package hashdoc

// Limits bounds the codec. Zero fields take their defaults.
type Limits struct {
	MaxTokenLength int // characters; tokens above this classify as StatusError and are rejected by Decode
	MaxDecodedSize int // bytes a token may declare after decompression
}

func defaultLimits() Limits {
	return Limits{
		MaxTokenLength: MaxTokenLength,
		MaxDecodedSize: 64 << 20, // 64 MiB
	}
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxTokenLength <= 0 {
		l.MaxTokenLength = d.MaxTokenLength
	}
	if l.MaxDecodedSize <= 0 {
		l.MaxDecodedSize = d.MaxDecodedSize
	}
	return l
}

// ImageLimits bounds images accepted by Normalize. Zero fields take their
// defaults.
type ImageLimits struct {
	MaxDimension int   // width or height in pixels
	MaxPixels    int64 // width*height
}

func defaultImageLimits() ImageLimits {
	return ImageLimits{
		MaxDimension: 32768,
		MaxPixels:    64 * 1024 * 1024, // keeps the RGBA buffer under 256 MiB
	}
}

func (l ImageLimits) withDefaults() ImageLimits {
	d := defaultImageLimits()
	if l.MaxDimension <= 0 {
		l.MaxDimension = d.MaxDimension
	}
	if l.MaxPixels <= 0 {
		l.MaxPixels = d.MaxPixels
	}
	return l
}
