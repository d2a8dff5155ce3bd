// Package watermark renders a tiled, semi-transparent text watermark over a
// container element and keeps it there.
//
// A Watermark rasterizes its text once into a tile image, mounts a layer that
// repeats the tile across the container's full scrollable extent, and watches
// the container's subtree. Any attribute or child-list change, or a window
// resize, triggers a throttled remount. Observation is always disconnected
// before the controller touches the tree and re-armed afterwards, so its own
// writes are never mistaken for tampering.
//
// The package talks to its environment only through the interfaces in the
// host package. memdom provides an in-memory host; jsdom binds a browser
// page when compiled for js/wasm.
package watermark
