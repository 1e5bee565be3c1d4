package compose

import (
	"context"
	"errors"
	"io"
	"strings"

	hashdoc "github.com/logicossoftware/go-hashdoc"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// segment is a run of the source document. Segments with img >= 0 are <img>
// tags whose data URL source is being normalized.
type segment struct {
	raw string
	tok html.Token
	src int // index of the src attribute in tok.Attr
	img int
}

// NormalizeDocument re-normalizes every image embedded as a data URL in an
// HTML document with the session preset, for documents authored elsewhere
// (a file, a previous session) that bypassed Paste.
//
// Only <img src="data:image/..."> tags are rewritten; every other byte of the
// document is kept as is. Images that cannot be decoded stay unchanged.
func (s *Session) NormalizeDocument(ctx context.Context, doc string) (string, error) {
	segs, imgs, err := splitImages(doc)
	if err != nil {
		return "", err
	}
	if len(imgs) == 0 {
		return doc, nil
	}

	results := s.PasteAll(ctx, imgs)

	var out strings.Builder
	out.Grow(len(doc))
	for _, seg := range segs {
		if seg.img < 0 {
			out.WriteString(seg.raw)
			continue
		}
		res := results[seg.img]
		switch {
		case res.Fallback:
			out.WriteString(seg.raw)
		case res.Err != nil:
			return "", res.Err
		default:
			seg.tok.Attr[seg.src].Val = res.Image.DataURL()
			out.WriteString(seg.tok.String())
		}
	}
	s.logger.Info("document images normalized", "images", len(imgs),
		"before", hashdoc.FormatBytes(len(doc)), "after", hashdoc.FormatBytes(out.Len()))
	return out.String(), nil
}

func splitImages(doc string) ([]segment, []hashdoc.ImageBlob, error) {
	var segs []segment
	var imgs []hashdoc.ImageBlob
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return segs, imgs, nil
			}
			return nil, nil, z.Err()
		}
		// Token lowercases the tag name in the tokenizer buffer, so copy Raw first.
		raw := string(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			segs = append(segs, segment{raw: raw, img: -1})
			continue
		}
		tok := z.Token()
		src := imageSource(tok)
		if src < 0 {
			segs = append(segs, segment{raw: raw, img: -1})
			continue
		}
		img, err := hashdoc.ParseDataURL(tok.Attr[src].Val)
		if err != nil {
			segs = append(segs, segment{raw: raw, img: -1})
			continue
		}
		segs = append(segs, segment{raw: raw, tok: tok, src: src, img: len(imgs)})
		imgs = append(imgs, img)
	}
}

func imageSource(tok html.Token) int {
	if tok.DataAtom != atom.Img {
		return -1
	}
	for i, a := range tok.Attr {
		if a.Namespace == "" && a.Key == "src" && strings.HasPrefix(a.Val, "data:") {
			return i
		}
	}
	return -1
}
