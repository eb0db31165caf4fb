// Package svg holds the lightweight SVG checks that run before a document is
// handed to a rendering backend.
//
// [Validate] is a shape heuristic, not a parser: the document must start with
// an <svg tag once surrounding whitespace is trimmed and must mention xmlns,
// width and height somewhere in its text. It accepts malformed documents that
// happen to contain those substrings (in comments or attribute values) and
// rejects well-formed documents that rely on default dimensions or a
// namespace prefix. Callers that need a real parse get one from the renderer.
//
// [Dimensions] reads the declared size of the root element so the renderer
// can allocate a surface of the right size.
package svg
