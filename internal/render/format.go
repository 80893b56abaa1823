package render

import (
	"errors"
	"fmt"
	"strings"
)

// Format is an output format name.
type Format string

const (
	FormatDot     Format = "dot"
	FormatSVG     Format = "svg"
	FormatPNG     Format = "png"
	FormatPDF     Format = "pdf"
	FormatJSON    Format = "json"
	FormatMermaid Format = "mermaid"
	FormatText    Format = "text"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown format")

var extensions = map[Format]string{
	FormatDot:     "dot",
	FormatSVG:     "svg",
	FormatPNG:     "png",
	FormatPDF:     "pdf",
	FormatJSON:    "json",
	FormatMermaid: "mmd",
	FormatText:    "txt",
}

// ParseFormat parses a case-insensitive format name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := extensions[f]; !ok {
		return "", fmt.Errorf("%w: %q (want dot, svg, png, pdf, json, mermaid or text)", ErrUnknownFormat, name)
	}
	return f, nil
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	return extensions[f]
}

// NeedsEngine reports whether f is produced by the layout engine.
func (f Format) NeedsEngine() bool {
	switch f {
	case FormatSVG, FormatPNG, FormatPDF, FormatJSON:
		return true
	}
	return false
}
