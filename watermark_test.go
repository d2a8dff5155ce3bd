package watermark

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/slogtest"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gcslaoli/watermark-overlay-go/host"
	"github.com/gcslaoli/watermark-overlay-go/memdom"
	"github.com/gcslaoli/watermark-overlay-go/raster"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// newContainer appends a div with the given scroll extent to the body.
func newContainer(doc *memdom.Document, width, height int) *memdom.Element {
	el := doc.NewElement("div")
	el.SetScrollSize(width, height)
	doc.Root().AppendChild(el)
	return el
}

func newTestWatermark(t *testing.T, doc host.Document, opts Options) (*Watermark, *quartz.Mock) {
	t.Helper()

	clock := quartz.NewMock(t)
	opts.Clock = clock
	opts.Logger = slogtest.Make(t, nil).Leveled(slog.LevelDebug)

	w, err := New(doc, opts)
	require.NoError(t, err)
	t.Cleanup(w.Dispose)
	return w, clock
}

// overlays returns the children that look like a mounted watermark layer.
func overlays(container *memdom.Element) []*memdom.Element {
	var out []*memdom.Element
	for _, c := range container.Children() {
		if c.StyleProperty("pointer-events") == "none" && c.StyleProperty("background-image") != "" {
			out = append(out, c)
		}
	}
	return out
}

func TestConfidentialScenario(t *testing.T) {
	t.Parallel()

	doc := memdom.New()
	container := newContainer(doc, 1000, 800)
	container.AppendChild(doc.NewElement("p"))

	w, _ := newTestWatermark(t, doc, Options{
		Container:        container,
		Text:             "CONFIDENTIAL",
		Width:            200,
		Height:           120,
		ThrottleInterval: 300 * time.Millisecond,
	})

	style := w.Style()
	require.Equal(t, 1000, style.Width)
	require.Equal(t, 800, style.Height)
	require.Equal(t, 200, style.TileWidth)
	require.Equal(t, 120, style.TileHeight)

	mounted := overlays(container)
	require.Len(t, mounted, 1)
	require.Equal(t, host.Element(mounted[0]), container.FirstChild(), "overlay is the first child")
	require.Equal(t, host.Element(mounted[0]), w.Overlay())

	require.Equal(t, "1000px", mounted[0].StyleProperty("width"))
	require.Equal(t, "800px", mounted[0].StyleProperty("height"))
	require.Equal(t, "200px 120px", mounted[0].StyleProperty("background-size"))
	require.Equal(t, "repeat", mounted[0].StyleProperty("background-repeat"))
	require.Equal(t, "absolute", mounted[0].StyleProperty("position"))
	require.Equal(t, "9999", mounted[0].StyleProperty("z-index"))

	require.True(t, w.Observing())
	require.Equal(t, 1, doc.ActiveObservers())
	require.Equal(t, StateMounted, w.State())
}

func TestResetAlwaysLeavesOneOverlay(t *testing.T) {
	t.Parallel()

	doc := memdom.New()
	container := newContainer(doc, 640, 480)
	w, _ := newTestWatermark(t, doc, Options{Container: container})

	for i := 0; i < 5; i++ {
		w.reset(TriggerManual)
		require.Len(t, overlays(container), 1)
		require.Equal(t, 1, doc.ActiveObservers())
	}
	require.Equal(t, 6, w.mounts)
	require.Len(t, container.Children(), 1)
}

func TestRemovedOverlayIsRestored(t *testing.T) {
	t.Parallel()

	doc := memdom.New()
	container := newContainer(doc, 640, 480)
	w, _ := newTestWatermark(t, doc, Options{Container: container})

	removed := w.Overlay()
	require.True(t, container.RemoveChild(removed))

	// The first trigger runs on the leading edge, synchronously.
	mounted := overlays(container)
	require.Len(t, mounted, 1)
	require.NotSame(t, removed.(*memdom.Element), mounted[0])
	require.Equal(t, 2, w.mounts)
}

func TestAlteredOverlayIsRestored(t *testing.T) {
	t.Parallel()

	doc := memdom.New()
	container := newContainer(doc, 640, 480)
	w, _ := newTestWatermark(t, doc, Options{Container: container})

	tampered := w.Overlay().(*memdom.Element)
	tampered.SetAttribute("style", "display: none")

	mounted := overlays(container)
	require.Len(t, mounted, 1)
	require.NotSame(t, tampered, mounted[0])
	require.Nil(t, tampered.Parent(), "tampered node is detached")
	require.Empty(t, mounted[0].StyleProperty("display"))
}

func TestRemountIsNotObservedAsTampering(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	doc := memdom.New()
	container := newContainer(doc, 640, 480)
	w, clock := newTestWatermark(t, doc, Options{
		Container:        container,
		ThrottleInterval: 300 * time.Millisecond,
	})

	container.SetAttribute("class", "edited")
	require.Equal(t, 2, w.mounts, "leading remount")
	require.False(t, w.throttled.Pending(), "own writes must not queue another remount")

	// A burst of edits within the interval collapses into one trailing run.
	container.SetAttribute("class", "edited-again")
	container.AppendChild(doc.NewElement("span"))
	container.RemoveChild(w.Overlay())
	require.Equal(t, 2, w.mounts)
	require.True(t, w.throttled.Pending())

	clock.Advance(300 * time.Millisecond).MustWait(ctx)
	require.Equal(t, 3, w.mounts)
	require.False(t, w.throttled.Pending())
	require.Len(t, overlays(container), 1)

	clock.Advance(time.Second).MustWait(ctx)
	require.Equal(t, 3, w.mounts, "no self-sustaining remount loop")
}

func TestTileIsRasterizedOnce(t *testing.T) {
	t.Parallel()

	doc := memdom.New()
	container := newContainer(doc, 640, 480)
	w, _ := newTestWatermark(t, doc, Options{Container: container, Text: "CONFIDENTIAL"})

	first, ok := w.Tile()
	require.True(t, ok)

	w.reset(TriggerManual)
	w.reset(TriggerManual)

	second, ok := w.Tile()
	require.True(t, ok)
	require.Equal(t, first.DataURL, second.DataURL)
	require.Equal(t, 1, w.rasterized)
	require.Equal(t, "url('"+first.DataURL+"')", overlays(container)[0].StyleProperty("background-image"))

	w.InvalidateTile()
	_, ok = w.Tile()
	require.False(t, ok)

	w.reset(TriggerManual)
	third, ok := w.Tile()
	require.True(t, ok)
	require.Equal(t, 2, w.rasterized)
	require.Equal(t, first.DataURL, third.DataURL, "same parameters draw the same bytes")
}

func TestPixelRatioScalesTile(t *testing.T) {
	t.Parallel()

	doc := memdom.New(memdom.WithPixelRatio(2))
	container := newContainer(doc, 640, 480)
	w, _ := newTestWatermark(t, doc, Options{Container: container})

	tile, ok := w.Tile()
	require.True(t, ok)
	require.Equal(t, 2.0, tile.PixelRatio)
	img, _, err := raster.DecodeDataURL(tile.DataURL)
	require.NoError(t, err)
	require.Equal(t, 400, img.Bounds().Dx())
	require.Equal(t, 240, img.Bounds().Dy())
	require.Equal(t, "200px 120px", w.Style().Background()[1].Value)

	// Moving to a standard display redraws on the next remount.
	doc.SetPixelRatio(1)
	doc.Resize()

	tile, ok = w.Tile()
	require.True(t, ok)
	require.Equal(t, 1.0, tile.PixelRatio)
	require.Equal(t, 2, w.rasterized)
	img, _, err = raster.DecodeDataURL(tile.DataURL)
	require.NoError(t, err)
	require.Equal(t, 200, img.Bounds().Dx())
}

func TestExtentCoversScrollableArea(t *testing.T) {
	t.Parallel()

	doc := memdom.New()
	container := newContainer(doc, 300, 5000)
	w, _ := newTestWatermark(t, doc, Options{Container: container})

	require.Equal(t, Extent{Width: 300, Height: 5000}, w.Extent())
	require.Equal(t, "5000px", w.Overlay().StyleProperty("height"))

	container.SetScrollSize(1200, 9000)
	doc.Resize()

	require.Equal(t, Extent{Width: 1200, Height: 9000}, w.Extent())
	require.Equal(t, "1200px", w.Overlay().StyleProperty("width"))
	require.Len(t, overlays(container), 1)
}

type recorder struct {
	mu        sync.Mutex
	rotations []float64
	scales    [][2]float64
	texts     []string
}

type recordingSurface struct {
	host.Surface
	rec *recorder
}

func (s recordingSurface) Rotate(radians float64) {
	s.rec.mu.Lock()
	s.rec.rotations = append(s.rec.rotations, radians)
	s.rec.mu.Unlock()
	s.Surface.Rotate(radians)
}

func (s recordingSurface) Scale(sx, sy float64) {
	s.rec.mu.Lock()
	s.rec.scales = append(s.rec.scales, [2]float64{sx, sy})
	s.rec.mu.Unlock()
	s.Surface.Scale(sx, sy)
}

func (s recordingSurface) StrokeText(text string, x, y, maxWidth float64, style host.TextStyle) error {
	s.rec.mu.Lock()
	s.rec.texts = append(s.rec.texts, "stroke:"+style.Color)
	s.rec.mu.Unlock()
	return s.Surface.StrokeText(text, x, y, maxWidth, style)
}

func TestRotationAndScaleApplied(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	doc := memdom.New(
		memdom.WithPixelRatio(1.5),
		memdom.WithSurfaceFactory(func(width, height int) (host.Surface, error) {
			s, err := raster.NewSurface(width, height)
			if err != nil {
				return nil, err
			}
			return recordingSurface{Surface: s, rec: rec}, nil
		}),
	)
	container := newContainer(doc, 640, 480)
	newTestWatermark(t, doc, Options{Container: container, StrokeColor: "#333"})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, [][2]float64{{1.5, 1.5}}, rec.scales)
	require.Len(t, rec.rotations, 1)
	require.InDelta(t, -15*math.Pi/180, rec.rotations[0], 1e-12)
	require.Equal(t, []string{"stroke:#333"}, rec.texts)
}

func TestZeroRotationIsHonoured(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	doc := memdom.New(memdom.WithSurfaceFactory(func(width, height int) (host.Surface, error) {
		s, err := raster.NewSurface(width, height)
		if err != nil {
			return nil, err
		}
		return recordingSurface{Surface: s, rec: rec}, nil
	}))
	newTestWatermark(t, doc, Options{Rotate: Float(0), ZIndex: Int(0)})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, []float64{0}, rec.rotations)
}

// bareDocument hides every optional capability of the wrapped document.
type bareDocument struct {
	host.Document
}

func TestWithoutObservationRendersOnce(t *testing.T) {
	t.Parallel()

	doc := memdom.New()
	container := newContainer(doc, 640, 480)
	w, _ := newTestWatermark(t, bareDocument{doc}, Options{Container: container})

	require.False(t, w.Observing())
	require.Len(t, overlays(container), 1)
	require.Zero(t, doc.ResizeListeners())

	container.RemoveChild(w.Overlay())
	require.Empty(t, overlays(container))
	require.Equal(t, 1, w.mounts)
}

func TestWatchDisabled(t *testing.T) {
	t.Parallel()

	doc := memdom.New()
	container := newContainer(doc, 640, 480)
	w, _ := newTestWatermark(t, doc, Options{Container: container, Watch: Bool(false)})

	require.False(t, w.Observing())
	require.Zero(t, doc.ActiveObservers())
	require.Equal(t, 1, doc.ResizeListeners(), "resizes still remount")
}

func TestContainerResolution(t *testing.T) {
	t.Parallel()

	doc := memdom.New(memdom.WithBodySize(800, 600))
	app := newContainer(doc, 320, 200)
	app.SetAttribute("id", "app")

	w, _ := newTestWatermark(t, doc, Options{Selector: "#app"})
	require.Equal(t, host.Element(app), w.Container())

	w, _ = newTestWatermark(t, doc, Options{Selector: "#missing"})
	require.Equal(t, doc.Body(), w.Container())
	require.Equal(t, Extent{Width: 800, Height: 600}, w.Extent())

	w, _ = newTestWatermark(t, doc, Options{})
	require.Equal(t, doc.Body(), w.Container())
}

func TestDispose(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	doc := memdom.New()
	container := newContainer(doc, 640, 480)
	w, clock := newTestWatermark(t, doc, Options{Container: container})
	require.Equal(t, 1, doc.ResizeListeners())

	// Leave a trailing remount pending.
	container.SetAttribute("class", "a")
	container.SetAttribute("class", "b")
	require.True(t, w.throttled.Pending())

	w.Dispose()
	require.Equal(t, StateDisposed, w.State())
	require.Empty(t, overlays(container))
	require.Nil(t, w.Overlay())
	require.False(t, w.Observing())
	require.Zero(t, doc.ActiveObservers())
	require.Zero(t, doc.ResizeListeners())
	require.False(t, w.throttled.Pending())

	clock.Advance(time.Second).MustWait(ctx)
	doc.Resize()
	w.Reset()
	require.Empty(t, overlays(container))
	require.Equal(t, 2, w.mounts)

	w.Dispose()
	require.NoError(t, w.Close())
}

func TestDirectBackgroundStrategy(t *testing.T) {
	t.Parallel()

	doc := memdom.New()
	container := newContainer(doc, 640, 480)
	content := doc.NewElement("p")
	container.AppendChild(content)

	w, _ := newTestWatermark(t, doc, Options{Container: container, Strategy: StrategyDirectBackground})

	require.Nil(t, w.Overlay())
	require.Equal(t, []*memdom.Element{content}, container.Children())
	tile, ok := w.Tile()
	require.True(t, ok)
	require.Equal(t, "url('"+tile.DataURL+"')", container.StyleProperty("background-image"))
	require.Equal(t, "200px 120px", container.StyleProperty("background-size"))
	require.Equal(t, "repeat", container.StyleProperty("background-repeat"))

	container.RemoveStyleProperty("background-image")
	require.Equal(t, "url('"+tile.DataURL+"')", container.StyleProperty("background-image"))
	require.Equal(t, 2, w.mounts)

	w.Dispose()
	require.Empty(t, container.StyleProperty("background-image"))
	require.Empty(t, container.StyleProperty("background-size"))
}

func TestDrawingFailureDegrades(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		fail = true
	)
	doc := memdom.New(memdom.WithSurfaceFactory(func(width, height int) (host.Surface, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, errors.New("2d context unavailable")
		}
		return raster.NewSurface(width, height)
	}))
	container := newContainer(doc, 640, 480)
	w, _ := newTestWatermark(t, doc, Options{Container: container})

	require.Equal(t, StateMounted, w.State())
	_, ok := w.Tile()
	require.False(t, ok)
	require.Empty(t, w.Style().Image)
	require.NotNil(t, w.Overlay())
	require.Empty(t, w.Overlay().StyleProperty("background-image"))
	require.Equal(t, "none", w.Overlay().StyleProperty("pointer-events"))

	mu.Lock()
	fail = false
	mu.Unlock()

	w.reset(TriggerManual)
	_, ok = w.Tile()
	require.True(t, ok)
	require.Len(t, overlays(container), 1)
}

func TestStyleString(t *testing.T) {
	t.Parallel()

	s := Style{
		Position:   "fixed",
		ZIndex:     10,
		Width:      1000,
		Height:     800,
		TileWidth:  200,
		TileHeight: 120,
		Image:      "data:image/png;base64,AA==",
	}
	require.Equal(t,
		"position: fixed; top: 0; left: 0; right: 0; bottom: 0; z-index: 10; width: 1000px; height: 800px; "+
			"pointer-events: none; background-repeat: repeat; background-size: 200px 120px; "+
			"background-image: url('data:image/png;base64,AA==');",
		s.String())

	s.Image = ""
	require.False(t, strings.Contains(s.String(), "background-image"))
}

func TestStateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "mounted", StateMounted.String())
	require.Equal(t, "State(42)", State(42).String())
}
