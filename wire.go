package hashdoc

import (
	"encoding/base64"
	"fmt"
)

// A token is the algorithm tag followed by the unpadded base64url encoding of
// the payload produced by compressPayload:
//
//	token   = tag base64url(payload)
//	payload = uvarint(len(document)) uvarint(len(body)) body crc32(document)
//
// Every character is in the URL-unreserved set, so tokens survive being
// placed in a fragment without escaping.
var tokenEncoding = base64.RawURLEncoding

func marshalToken(alg Algorithm, payload []byte) string {
	buf := make([]byte, 1+tokenEncoding.EncodedLen(len(payload)))
	buf[0] = byte(alg)
	tokenEncoding.Encode(buf[1:], payload)
	return string(buf)
}

func unmarshalToken(token string) (Algorithm, []byte, error) {
	if len(token) < 2 {
		return 0, nil, fmt.Errorf("%w: token too short", ErrCorrupt)
	}
	alg := Algorithm(token[0])
	if !alg.Valid() {
		return 0, nil, fmt.Errorf("%w: unknown algorithm tag %q", ErrCorrupt, token[0])
	}
	payload, err := tokenEncoding.DecodeString(token[1:])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return alg, payload, nil
}
