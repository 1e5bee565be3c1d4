// Command hashdoc encodes HTML documents into preview links, decodes them
// back, shrinks images, and serves the same operations over HTTP.
//
// Usage:
//
//	hashdoc encode -in mail.html [-algo brotli] [-preset medium] [-base https://example.com]
//	hashdoc decode -url 'https://example.com/preview#b...' [-out doc.html] [-safe]
//	hashdoc stats  -in mail.html
//	hashdoc image  -in shot.png -preset low -out small.png
//	hashdoc serve  [-config hashdoc.yaml] [-addr :8080]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	hashdoc "github.com/logicossoftware/go-hashdoc"
	"github.com/logicossoftware/go-hashdoc/compose"
	"github.com/logicossoftware/go-hashdoc/config"
	"github.com/logicossoftware/go-hashdoc/preview"
	"github.com/logicossoftware/go-hashdoc/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "encode":
		err = runEncode(logger, args)
	case "decode":
		err = runDecode(args)
	case "stats":
		err = runStats(args)
	case "image":
		err = runImage(args)
	case "serve":
		err = runServe(logger, args)
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error(os.Args[1]+" failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: hashdoc <encode|decode|stats|image|serve> [flags]")
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newSession(logger *slog.Logger, preset, algo, base string) (*compose.Session, error) {
	alg, err := hashdoc.ParseAlgorithm(algo)
	if err != nil {
		return nil, err
	}
	return compose.New(compose.Config{Preset: preset, Algorithm: alg, BaseURL: base, Logger: logger})
}

func runEncode(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	in := fs.String("in", "", "input HTML file (default stdin)")
	algo := fs.String("algo", hashdoc.AlgBrotli.String(), "compression: none, brotli, zstd, lz4, flate")
	preset := fs.String("preset", hashdoc.PresetOriginal.String(), "re-normalize embedded images: original, high, medium, low")
	base := fs.String("base", "/", "base URL of the preview page")
	_ = fs.Parse(args)

	doc, err := readInput(*in)
	if err != nil {
		return err
	}
	s, err := newSession(logger, *preset, *algo, *base)
	if err != nil {
		return err
	}
	html := string(doc)
	if s.Preset() != hashdoc.PresetOriginal {
		if html, err = s.NormalizeDocument(context.Background(), html); err != nil {
			return err
		}
	}
	link, err := s.Share(html)
	if err != nil {
		return err
	}
	fmt.Println(link.URL)
	return nil
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	token := fs.String("token", "", "token to decode")
	rawURL := fs.String("url", "", "preview URL to decode")
	out := fs.String("out", "", "output file (default stdout)")
	safe := fs.Bool("safe", false, "sanitize the document before writing it")
	_ = fs.Parse(args)

	var page *preview.Page
	var err error
	if *rawURL != "" {
		page, err = preview.Load(*rawURL)
	} else {
		page, err = preview.LoadToken(*token)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", preview.Message(err), err)
	}
	html := page.HTML
	if *safe {
		html = page.SafeHTML()
	}
	return writeOutput(*out, []byte(html))
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	in := fs.String("in", "", "input HTML file (default stdin)")
	algo := fs.String("algo", hashdoc.AlgBrotli.String(), "compression: none, brotli, zstd, lz4, flate")
	_ = fs.Parse(args)

	doc, err := readInput(*in)
	if err != nil {
		return err
	}
	alg, err := hashdoc.ParseAlgorithm(*algo)
	if err != nil {
		return err
	}
	st := statsOf(string(doc), alg)
	fmt.Printf("Raw Size:    %s\n", hashdoc.FormatBytes(st.RawSize))
	fmt.Printf("Compressed:  %s\n", hashdoc.FormatBytes(st.CompressedSize))
	fmt.Printf("Compression: %.1f%% saved\n", st.Ratio)
	fmt.Printf("Status:      %s\n", st.Status)
	return nil
}

func statsOf(doc string, alg hashdoc.Algorithm) hashdoc.Stats {
	res, err := hashdoc.Encode(doc, hashdoc.WithAlgorithm(alg))
	var tooLarge *hashdoc.TooLargeError
	if errors.As(err, &tooLarge) {
		return tooLarge.Stats
	}
	if err != nil {
		return hashdoc.Stats{RawSize: len(doc), Status: hashdoc.StatusError}
	}
	return res.Stats
}

func runImage(args []string) error {
	fs := flag.NewFlagSet("image", flag.ExitOnError)
	in := fs.String("in", "", "input image file")
	presetName := fs.String("preset", hashdoc.DefaultPreset.String(), "original, high, medium, low")
	out := fs.String("out", "", "output file (default stdout)")
	dataURL := fs.Bool("data-url", false, "write a data URL instead of image bytes")
	_ = fs.Parse(args)

	if *in == "" {
		return errors.New("-in is required")
	}
	preset, err := hashdoc.ParsePreset(*presetName)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	img := hashdoc.NewImageBlob(mime.TypeByExtension(filepath.Ext(*in)), data)
	res, err := hashdoc.Normalize(context.Background(), img, preset)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%dx%d %s -> %dx%d %s (%s)\n",
		img.Width, img.Height, hashdoc.FormatBytes(len(img.Data)),
		res.Width, res.Height, hashdoc.FormatBytes(len(res.Data)), preset)
	if *dataURL {
		return writeOutput(*out, []byte(res.DataURL()))
	}
	return writeOutput(*out, res.Data)
}

func runServe(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "YAML configuration file")
	addr := fs.String("addr", "", "listen address (overrides config)")
	_ = fs.Parse(args)

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.LoadFile(*cfgPath); err != nil {
			return err
		}
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}
