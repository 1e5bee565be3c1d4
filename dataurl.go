package hashdoc

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"
)

// DataURL renders b as a base64 data URL, the form images take when embedded
// in a document.
func (b ImageBlob) DataURL() string {
	return "data:" + b.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// ParseDataURL decodes a base64 "data:image/...;base64," URL into an
// ImageBlob. Dimensions are filled when the image header is readable.
func ParseDataURL(s string) (ImageBlob, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return ImageBlob{}, fmt.Errorf("%w: not a data URL", ErrInvalidImage)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return ImageBlob{}, fmt.Errorf("%w: data URL has no payload", ErrInvalidImage)
	}
	mimeType, params, _ := strings.Cut(meta, ";")
	if !strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return ImageBlob{}, fmt.Errorf("%w: data URL type %q is not an image", ErrInvalidImage, mimeType)
	}
	if !hasBase64Param(params) {
		return ImageBlob{}, fmt.Errorf("%w: data URL is not base64", ErrInvalidImage)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ImageBlob{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return NewImageBlob(strings.ToLower(mimeType), data), nil
}

func hasBase64Param(params string) bool {
	for _, p := range strings.Split(params, ";") {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			return true
		}
	}
	return false
}

// EstimateDataURLSize returns the decoded byte size of a data URL's payload
// from its base64 length alone.
func EstimateDataURLSize(dataURL string) int {
	_, payload, _ := strings.Cut(dataURL, ",")
	return int(math.Round(float64(len(payload)) * 3 / 4))
}
