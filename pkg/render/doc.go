// Package render rasterizes SVG documents into PNG images.
//
// Two backends implement [Renderer]:
//
//   - [OksvgRenderer] parses and rasterizes in pure Go with
//     github.com/srwiley/oksvg and github.com/srwiley/rasterx. It is the
//     default because it needs nothing installed.
//   - [RsvgRenderer] shells out to librsvg's rsvg-convert for full SVG
//     support (text, filters, CSS). It requires the binary on PATH:
//     brew install librsvg (macOS), apt install librsvg2-bin (Linux).
//
// Both size the output to the document's declared width and height and fall
// back to [DefaultWidth] x [DefaultHeight] when the document declares none.
// Output depends only on the SVG bytes and the renderer [Settings], which is
// what makes rendered PNGs safe to cache by content hash.
package render
