// Command wmtile renders a watermark tile, or a full page preview, from an
// option file without a browser.
//
//	go run ./cmd/wmtile -config opts.yaml -out tile.png
//	go run ./cmd/wmtile -config opts.json -ratio 2 -outbase64
//	go run ./cmd/wmtile -text CONFIDENTIAL -preview 1000x800 -out page.png
//	go run ./cmd/wmtile -font NotoSansCJK-Regular.ttc -out tile.png
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/sloghuman"

	watermark "github.com/gcslaoli/watermark-overlay-go"
	"github.com/gcslaoli/watermark-overlay-go/memdom"
	"github.com/gcslaoli/watermark-overlay-go/raster"
)

type config struct {
	optionFile   string
	fontFile     string
	text         string
	ratio        float64
	preview      string
	output       string
	outputBase64 bool
	printCSS     bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.optionFile, "config", "", "Path to a JSON or YAML option file")
	flag.StringVar(&cfg.fontFile, "font", "", "Fallback font (TTF/OTF/TTC) for runes the Go fonts lack, e.g. CJK")
	flag.StringVar(&cfg.text, "text", "", "Watermark text (overrides the option file)")
	flag.Float64Var(&cfg.ratio, "ratio", 1, "Device pixel ratio to draw at")
	flag.StringVar(&cfg.preview, "preview", "", "Render a page of WxH CSS pixels under the overlay instead of a single tile")
	flag.StringVar(&cfg.output, "out", "watermark.png", "Output PNG path")
	flag.BoolVar(&cfg.outputBase64, "outbase64", false, "Write the PNG as a data URL to stdout instead of a file")
	flag.BoolVar(&cfg.printCSS, "css", false, "Print the overlay cssText to stdout")
	verbose := flag.Bool("v", false, "Log debug output to stderr")
	flag.Parse()

	ctx := context.Background()
	logger := slog.Make(sloghuman.Sink(os.Stderr)).Leveled(slog.LevelInfo)
	if *verbose {
		logger = logger.Leveled(slog.LevelDebug)
	}

	if err := run(ctx, logger, cfg); err != nil {
		logger.Fatal(ctx, "wmtile failed", slog.Error(err))
	}
}

func run(ctx context.Context, logger slog.Logger, cfg config) error {
	var opts watermark.Options
	if cfg.optionFile != "" {
		data, err := os.ReadFile(cfg.optionFile)
		if err != nil {
			return fmt.Errorf("read option file: %w", err)
		}
		opts, err = watermark.ParseOptions(data)
		if err != nil {
			return fmt.Errorf("parse option file %s: %w", cfg.optionFile, err)
		}
	}
	if cfg.text != "" {
		opts.Text = cfg.text
	}
	opts.Selector = ""
	opts.Watch = watermark.Bool(false)
	opts.Logger = logger

	if cfg.fontFile != "" {
		data, err := os.ReadFile(cfg.fontFile)
		if err != nil {
			return fmt.Errorf("read font: %w", err)
		}
		if err := raster.RegisterFallbackFont(data); err != nil {
			return err
		}
	}

	pageW, pageH := 0, 0
	if cfg.preview != "" {
		if _, err := fmt.Sscanf(cfg.preview, "%dx%d", &pageW, &pageH); err != nil {
			return fmt.Errorf("parse preview size %q: %w", cfg.preview, err)
		}
	}

	doc := memdom.New(memdom.WithPixelRatio(cfg.ratio), memdom.WithBodySize(pageW, pageH))
	wm, err := watermark.New(doc, opts)
	if err != nil {
		return fmt.Errorf("create watermark: %w", err)
	}
	defer wm.Dispose()

	tile, ok := wm.Tile()
	if !ok {
		return fmt.Errorf("watermark tile was not drawn")
	}
	if cfg.printCSS {
		fmt.Println(wm.Style().String())
	}

	img, _, err := raster.DecodeDataURL(tile.DataURL)
	if err != nil {
		return fmt.Errorf("decode tile: %w", err)
	}
	if cfg.preview != "" {
		style := wm.Style()
		img, err = raster.Preview(img, style.TileWidth, style.TileHeight, pageW, pageH, color.White)
		if err != nil {
			return fmt.Errorf("render preview: %w", err)
		}
	}

	if cfg.outputBase64 {
		url, err := raster.EncodePNGDataURL(img)
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil
	}

	if err := writePNG(cfg.output, img); err != nil {
		return fmt.Errorf("write %s: %w", cfg.output, err)
	}
	logger.Info(ctx, "wrote watermark",
		slog.F("path", cfg.output),
		slog.F("size", img.Bounds().Size()),
		slog.F("pixel_ratio", tile.PixelRatio),
	)
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
