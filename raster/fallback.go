package raster

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"golang.org/x/image/font/opentype"
)

// systemFallbackPaths lists CJK-capable system fonts. The first one that
// exists and parses joins the fallback chain.
var systemFallbackPaths = []string{
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/noto-cjk/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/google-noto-cjk/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/truetype/wqy/wqy-microhei.ttc",
	"/usr/share/fonts/wenquanyi/wqy-microhei/wqy-microhei.ttc",
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
	"/System/Library/Fonts/PingFang.ttc",
	"/System/Library/Fonts/STHeiti Medium.ttc",
	"/Library/Fonts/Arial Unicode.ttf",
	`C:\Windows\Fonts\msyh.ttc`,
	`C:\Windows\Fonts\simhei.ttf`,
}

var fallbacks struct {
	mu         sync.Mutex
	registered []*opentype.Font

	systemOnce sync.Once
	system     []*opentype.Font
}

// RegisterFallbackFont adds a TTF, OTF or collection (first face) to the
// fonts consulted for runes the Go fonts lack. Registered fonts are tried
// in order, before any system font. Surfaces created afterwards use it.
func RegisterFallbackFont(data []byte) error {
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return fmt.Errorf("parse fallback font: %w", err)
	}
	f, err := coll.Font(0)
	if err != nil {
		return fmt.Errorf("parse fallback font: %w", err)
	}

	fallbacks.mu.Lock()
	defer fallbacks.mu.Unlock()
	fallbacks.registered = append(fallbacks.registered, f)
	return nil
}

func fallbackFonts() []*opentype.Font {
	fallbacks.systemOnce.Do(func() {
		fallbacks.system = loadSystemFallback()
	})

	fallbacks.mu.Lock()
	defer fallbacks.mu.Unlock()
	return append(slices.Clone(fallbacks.registered), fallbacks.system...)
}

func loadSystemFallback() []*opentype.Font {
	for _, path := range systemFallbackPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			continue
		}
		f, err := coll.Font(0)
		if err != nil {
			continue
		}
		return []*opentype.Font{f}
	}
	return nil
}
