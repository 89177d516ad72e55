package model

import (
	"sort"
	"strings"
)

// Symbology is the encoding format of a machine-readable code.
type Symbology string

// Supported symbologies.
const (
	SymbologyQR      Symbology = "qr"
	SymbologyEAN13   Symbology = "ean13"
	SymbologyEAN8    Symbology = "ean8"
	SymbologyUPCA    Symbology = "upca"
	SymbologyUPCE    Symbology = "upce"
	SymbologyCode128 Symbology = "code128"
	SymbologyCode39  Symbology = "code39"
	SymbologyI25     Symbology = "i25"
	SymbologyDataBar Symbology = "databar"
	SymbologyPDF417  Symbology = "pdf417"
)

var symbologyAliases = map[string]Symbology{
	"qr":              SymbologyQR,
	"qrcode":          SymbologyQR,
	"ean13":           SymbologyEAN13,
	"ean8":            SymbologyEAN8,
	"upca":            SymbologyUPCA,
	"upce":            SymbologyUPCE,
	"code128":         SymbologyCode128,
	"code39":          SymbologyCode39,
	"i25":             SymbologyI25,
	"interleaved2of5": SymbologyI25,
	"databar":         SymbologyDataBar,
	"databarexpanded": SymbologyDataBar,
	"pdf417":          SymbologyPDF417,
}

// String returns the string representation of the Symbology.
func (s Symbology) String() string {
	return string(s)
}

// ParseSymbology accepts canonical names as well as decoder labels such as
// "QR-Code", "EAN-13" or "I2/5".
func ParseSymbology(s string) (Symbology, bool) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '/', ' ', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
	sym, ok := symbologyAliases[key]
	return sym, ok
}

// SymbologySet is the analyzer filter.
type SymbologySet map[Symbology]struct{}

// NewSymbologySet builds a set from the given symbologies.
func NewSymbologySet(syms ...Symbology) SymbologySet {
	set := make(SymbologySet, len(syms))
	for _, s := range syms {
		set[s] = struct{}{}
	}
	return set
}

// Contains reports whether sym is in the set. A nil set contains nothing.
func (s SymbologySet) Contains(sym Symbology) bool {
	_, ok := s[sym]
	return ok
}

// Slice returns the members sorted by name.
func (s SymbologySet) Slice() []Symbology {
	out := make([]Symbology, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
