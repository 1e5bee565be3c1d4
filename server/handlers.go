package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	hashdoc "github.com/logicossoftware/go-hashdoc"
	"github.com/logicossoftware/go-hashdoc/preview"
)

// FallbackHeader is set to "true" on /api/images/normalize responses that
// carry the original image because it could not be normalized.
const FallbackHeader = "X-Hashdoc-Fallback"

type statsResponse struct {
	hashdoc.Stats
	RawSizeText        string `json:"raw_size_text"`
	CompressedSizeText string `json:"compressed_size_text"`
}

func newStatsResponse(st hashdoc.Stats) statsResponse {
	return statsResponse{
		Stats:              st,
		RawSizeText:        hashdoc.FormatBytes(st.RawSize),
		CompressedSizeText: hashdoc.FormatBytes(st.CompressedSize),
	}
}

type shareResponse struct {
	Token string        `json:"token"`
	URL   string        `json:"url"`
	Stats statsResponse `json:"stats"`
}

type errorResponse struct {
	Error string         `json:"error"`
	Stats *statsResponse `json:"stats,omitempty"`
}

type decodeResponse struct {
	HTML        string `json:"html"`
	TokenLength int    `json:"token_length"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(s.session.Stats(string(body))))
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	link, err := s.session.Share(string(body))
	if err != nil {
		var tooLarge *hashdoc.TooLargeError
		if errors.As(err, &tooLarge) {
			st := newStatsResponse(tooLarge.Stats)
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error(), Stats: &st})
			return
		}
		if errors.Is(err, hashdoc.ErrLimitExceeded) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{
		Token: link.Token,
		URL:   link.URL,
		Stats: newStatsResponse(link.Stats),
	})
}

// handleDecode accepts either a bare token or a full preview URL. With
// ?safe=1 it answers with the sanitized document as text/html; otherwise the
// exact document is returned inside JSON.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	in := strings.TrimSpace(string(body))
	opt := hashdoc.WithDecodeLimits(s.cfg.Limits())
	var page *preview.Page
	var err error
	if strings.Contains(in, "#") {
		page, err = preview.Load(in, opt)
	} else {
		page, err = preview.LoadToken(in, opt)
	}
	switch {
	case errors.Is(err, preview.ErrNoContent):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: preview.Message(err)})
		return
	case err != nil:
		s.logger.Info("decode failed", "error", err, "token_length", len(in))
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: preview.Message(err)})
		return
	}

	if r.URL.Query().Get("safe") == "1" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, page.SafeHTML())
		return
	}
	writeJSON(w, http.StatusOK, decodeResponse{HTML: page.HTML, TokenLength: page.TokenLength})
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	preset := s.session.Preset()
	if name := r.URL.Query().Get("preset"); name != "" {
		p, err := hashdoc.ParsePreset(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		preset = p
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	img := hashdoc.NewImageBlob(imageType(r.Header.Get("Content-Type"), body), body)
	res := s.session.PasteWithPreset(r.Context(), img, preset)
	if res.Err != nil && !res.Fallback {
		writeError(w, http.StatusInternalServerError, res.Err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", res.Image.MIMEType)
	if res.Image.Width > 0 {
		h.Set("X-Image-Width", strconv.Itoa(res.Image.Width))
		h.Set("X-Image-Height", strconv.Itoa(res.Image.Height))
	}
	if res.Fallback {
		h.Set(FallbackHeader, "true")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Image.Data)
}

// imageType returns the declared Content-Type when it names an image and the
// type sniffed from data otherwise.
func imageType(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	return http.DetectContentType(data)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
