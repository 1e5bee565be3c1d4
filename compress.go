package hashdoc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Function variables for testing injection.
var (
	newZstdWriter = func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	newZstdReader = func(maxMemory uint64) (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxMemory), zstd.WithDecoderConcurrency(1))
	}
	newFlateWriter = func(w io.Writer) (*flate.Writer, error) { return flate.NewWriter(w, flate.BestCompression) }
	readAll        = io.ReadAll
	lz4Close       = func(w *lz4.Writer) error { return w.Close() }
	brotliClose    = func(w *brotli.Writer) error { return w.Close() }
	brotliWrite    = func(w *brotli.Writer, p []byte) (int, error) { return w.Write(p) }
	flateClose     = func(w *flate.Writer) error { return w.Close() }
)

// compressPayload compresses in with alg and frames the result:
//
//	uvarint(len(in)) uvarint(len(body)) body crc32(in)
//
// Any truncation changes the body length; the CRC catches altered bytes.
func compressPayload(alg Algorithm, in []byte) ([]byte, error) {
	var body []byte
	var err error
	switch alg {
	case AlgNone:
		body = in
	case AlgBrotli:
		body, err = brotliCompress(in)
	case AlgZstd:
		body, err = zstdCompress(in)
	case AlgLZ4:
		body, err = lz4Compress(in)
	case AlgFlate:
		body, err = flateCompress(in)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, byte(alg))
	}
	if err != nil {
		return nil, err
	}
	payload := make([]byte, 0, 2*binary.MaxVarintLen64+len(body)+crc32.Size)
	payload = binary.AppendUvarint(payload, uint64(len(in)))
	payload = binary.AppendUvarint(payload, uint64(len(body)))
	payload = append(payload, body...)
	return binary.BigEndian.AppendUint32(payload, crc32.ChecksumIEEE(in)), nil
}

// decompressPayload reverses compressPayload. The declared length must not
// exceed maxDecoded, and the output must match both the declared length and
// the checksum.
func decompressPayload(alg Algorithm, payload []byte, maxDecoded int) ([]byte, error) {
	declared, n := binary.Uvarint(payload)
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad length prefix", ErrCorrupt)
	}
	if declared > uint64(maxDecoded) {
		return nil, fmt.Errorf("%w: %w: declared length %d", ErrCorrupt, ErrLimitExceeded, declared)
	}
	payload = payload[n:]
	bodyLen, n := binary.Uvarint(payload)
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad body length", ErrCorrupt)
	}
	payload = payload[n:]
	if bodyLen > uint64(len(payload)) || uint64(len(payload))-bodyLen != crc32.Size {
		return nil, fmt.Errorf("%w: payload is %d bytes, header declares %d", ErrCorrupt, len(payload), bodyLen+crc32.Size)
	}
	body := payload[:bodyLen]
	sum := binary.BigEndian.Uint32(payload[bodyLen:])
	expected := int(declared)

	var out []byte
	var err error
	switch alg {
	case AlgNone:
		out = body
	case AlgBrotli:
		out, err = brotliDecompress(body, expected)
	case AlgZstd:
		out, err = zstdDecompress(body, expected)
	case AlgLZ4:
		out, err = lz4Decompress(body, expected)
	case AlgFlate:
		out, err = flateDecompress(body, expected)
	default:
		return nil, fmt.Errorf("%w: unknown algorithm tag %q", ErrCorrupt, byte(alg))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, alg, err)
	}
	if len(out) != expected {
		return nil, fmt.Errorf("%w: decoded length %d != expected %d", ErrCorrupt, len(out), expected)
	}
	if crc32.ChecksumIEEE(out) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return out, nil
}

// brotliCompress compresses in using the Brotli algorithm at its best level.
func brotliCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	bw := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := brotliWrite(bw, in); err != nil {
		_ = brotliClose(bw)
		return nil, err
	}
	if err := brotliClose(bw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// brotliDecompress reads at most expected+1 bytes so an oversized stream is
// rejected without being fully inflated.
func brotliDecompress(in []byte, expected int) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(in))
	b, err := readAll(io.LimitReader(r, int64(expected)+1))
	if err != nil {
		return nil, err
	}
	if len(b) > expected {
		return nil, fmt.Errorf("brotli expanded beyond expected size")
	}
	return b, nil
}

func zstdCompress(in []byte) ([]byte, error) {
	enc, err := newZstdWriter()
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(in, nil), nil
}

func zstdDecompress(in []byte, expected int) ([]byte, error) {
	// The decoder refuses windows or frame sizes above maxMemory; keep a floor
	// so an empty document still decodes.
	dec, err := newZstdReader(uint64(expected) + 1<<10)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(in, nil)
	if err != nil {
		return nil, err
	}
	if len(out) > expected {
		return nil, fmt.Errorf("zstd expanded beyond expected size")
	}
	return out, nil
}

func lz4Compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(in); err != nil {
		_ = lz4Close(zw)
		return nil, err
	}
	if err := lz4Close(zw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lz4Decompress(in []byte, expected int) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(in))
	b, err := readAll(io.LimitReader(r, int64(expected)+1))
	if err != nil {
		return nil, err
	}
	if len(b) > expected {
		return nil, fmt.Errorf("lz4 expanded beyond expected size")
	}
	return b, nil
}

// flateCompress writes a raw DEFLATE stream with no container around it.
func flateCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := newFlateWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(in); err != nil {
		_ = flateClose(fw)
		return nil, err
	}
	if err := flateClose(fw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flateDecompress(in []byte, expected int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(in))
	defer r.Close()
	b, err := readAll(io.LimitReader(r, int64(expected)+1))
	if err != nil {
		return nil, err
	}
	if len(b) > expected {
		return nil, fmt.Errorf("flate expanded beyond expected size")
	}
	return b, nil
}
