//go:build js && wasm

// Command wmwasm exposes the watermark controller to a page as a global
// WaterMark constructor:
//
//	const wm = new WaterMark({ container: "#app", content: "internal" });
//	wm.reset();
//	wm.dispose();
//
// Build with GOOS=js GOARCH=wasm go build -o wm.wasm ./cmd/wmwasm
package main

import (
	"context"
	"os"

	"syscall/js"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/sloghuman"

	watermark "github.com/gcslaoli/watermark-overlay-go"
	"github.com/gcslaoli/watermark-overlay-go/host"
	"github.com/gcslaoli/watermark-overlay-go/jsdom"
)

func main() {
	logger := slog.Make(sloghuman.Sink(os.Stderr)).Leveled(slog.LevelInfo)
	if os.Getenv("WATERMARK_DEBUG") != "" {
		logger = logger.Leveled(slog.LevelDebug)
	}

	doc := jsdom.New()
	js.Global().Set("WaterMark", js.FuncOf(func(_ js.Value, args []js.Value) any {
		arg := js.Undefined()
		if len(args) > 0 {
			arg = args[0]
		}
		return construct(logger, doc, arg)
	}))

	select {}
}

// construct builds a watermark from a page option object and returns the
// page-facing handle, or null when the options are rejected.
func construct(logger slog.Logger, doc host.Document, arg js.Value) any {
	ctx := context.Background()

	container := js.Undefined()
	data := "{}"
	if arg.Type() == js.TypeObject {
		container = arg.Get("container")
		clone := js.Global().Get("Object").Call("assign", js.Global().Get("Object").New(), arg)
		// Elements do not survive JSON; only a selector travels in the document.
		if container.Type() != js.TypeString {
			clone.Delete("container")
		}
		data = js.Global().Get("JSON").Call("stringify", clone).String()
	}

	opts, err := watermark.ParseOptions([]byte(data))
	if err != nil {
		logger.Error(ctx, "parse watermark options", slog.Error(err))
		return js.Null()
	}
	if container.Type() == js.TypeObject {
		opts.Container = jsdom.Wrap(container)
	}
	opts.Logger = logger

	w, err := watermark.New(doc, opts)
	if err != nil {
		logger.Error(ctx, "create watermark", slog.Error(err))
		return js.Null()
	}

	handle := js.Global().Get("Object").New()
	handle.Set("reset", js.FuncOf(func(js.Value, []js.Value) any {
		w.Reset()
		return nil
	}))
	handle.Set("dispose", js.FuncOf(func(js.Value, []js.Value) any {
		w.Dispose()
		return nil
	}))
	return handle
}
