// Package hashdoc carries a whole HTML document, embedded images included,
// inside the fragment of a URL.
//
// Nothing is stored on a server: the sender encodes the document into a
// token, places it after the "#" of a preview link, and the receiver decodes
// the token back into the exact same bytes.
//
// # Token Format
//
// A token is a single algorithm tag character followed by the unpadded
// base64url encoding of a payload:
//   - a uvarint with the byte length of the document
//   - a uvarint with the byte length of the compressed body
//   - the document compressed with Brotli, Zstandard, LZ4, DEFLATE, or stored as is
//   - the big-endian CRC-32 (IEEE) of the document
//
// Decode rejects a token whose payload does not match both lengths and the
// checksum, so a truncated or altered link never yields a partial document.
//
// # Size Budget
//
// Browsers cap URL length. Tokens longer than [MaxTokenLength] characters are
// never returned by [Encode]; tokens above [WarnPercent] of it are reported as
// [StatusWarning] so a user can shrink images before trying to share.
//
// # Basic Usage
//
//	res, err := hashdoc.Encode("<p>Hello</p>")
//	if errors.Is(err, hashdoc.ErrTooLarge) {
//		// ask the user to reduce the content
//	}
//	link := "https://example.com/preview#" + res.Token
//
//	html, err := hashdoc.Decode(res.Token)
//
// # Images
//
// [Normalize] shrinks a pasted image to a [Preset] before it is embedded as a
// data URL. It is the only slow operation in the package and takes a
// context.Context.
package hashdoc
