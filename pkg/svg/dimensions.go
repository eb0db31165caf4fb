package svg

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
)

// CSS absolute units in user-space pixels at 96 DPI.
var unitScale = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72.0,
	"pc": 16,
	"in": 96,
	"cm": 96 / 2.54,
	"mm": 96 / 25.4,
}

// Size is the declared pixel size of a document.
type Size struct {
	Width  float64
	Height float64
}

// Dimensions reads the declared width and height of the root <svg> element.
// Absolute units are converted to pixels at 96 DPI. A missing or relative
// (percent, em) width or height falls back to the matching viewBox extent.
// ok is false when the root is not <svg> or no positive size can be derived.
func Dimensions(data []byte) (size Size, ok bool) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return Size{}, false
		}
		start, isStart := tok.(xml.StartElement)
		if !isStart {
			continue
		}
		if start.Name.Local != "svg" {
			return Size{}, false
		}
		return rootSize(start.Attr)
	}
}

func rootSize(attrs []xml.Attr) (Size, bool) {
	var (
		size       Size
		vbW, vbH   float64
		hasW, hasH bool
		hasViewBox bool
	)
	for _, a := range attrs {
		switch a.Name.Local {
		case "width":
			size.Width, hasW = parseLength(a.Value)
		case "height":
			size.Height, hasH = parseLength(a.Value)
		case "viewBox":
			vbW, vbH, hasViewBox = parseViewBox(a.Value)
		}
	}
	if !hasW && hasViewBox {
		size.Width, hasW = vbW, true
	}
	if !hasH && hasViewBox {
		size.Height, hasH = vbH, true
	}
	if !hasW || !hasH || size.Width <= 0 || size.Height <= 0 {
		return Size{}, false
	}
	return size, true
}

// parseLength parses an SVG length such as "10", "10px" or "2in".
func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	i := len(s)
	for i > 0 && (s[i-1] >= 'a' && s[i-1] <= 'z' || s[i-1] >= 'A' && s[i-1] <= 'Z') {
		i--
	}
	num, unit := s[:i], strings.ToLower(s[i:])
	scale, known := unitScale[unit]
	if !known {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v * scale, true
}

// parseViewBox parses "min-x min-y width height" separated by whitespace
// and/or commas, returning width and height.
func parseViewBox(s string) (w, h float64, ok bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return 0, 0, false
	}
	var err error
	if w, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return 0, 0, false
	}
	if h, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return 0, 0, false
	}
	return w, h, w > 0 && h > 0
}
