package device

import (
	"bufio"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/lazyvibe/codescan/internal/model"
)

// ParseDetection parses a "TYPE:payload" line as printed by zbarimg
// ("QR-Code:https://example.com") or written to a spool file ("qr:...").
// Only the first colon separates the type, so payloads may contain colons.
func ParseDetection(line string) (model.Detection, bool) {
	line = strings.TrimRight(ansi.Strip(line), "\r\n")
	kind, payload, ok := strings.Cut(line, ":")
	if !ok {
		return model.Detection{}, false
	}
	sym, ok := model.ParseSymbology(kind)
	if !ok {
		return model.Detection{}, false
	}
	return model.Detection{Symbology: sym, Payload: payload}, true
}

// ParseDetections reads one detection per line from r, skipping blank and
// unrecognised lines.
func ParseDetections(r io.Reader) ([]model.Detection, error) {
	var out []model.Detection
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		if d, ok := ParseDetection(scanner.Text()); ok {
			out = append(out, d)
		}
	}
	return out, scanner.Err()
}

// zbarIndex is one processed image in zbar's --xml output. It carries every
// symbol decoded from that image.
type zbarIndex struct {
	Symbols []zbarSymbol `xml:"symbol"`
}

type zbarSymbol struct {
	Type string   `xml:"type,attr"`
	Data zbarData `xml:"data"`
}

type zbarData struct {
	Format string `xml:"format,attr"`
	Text   string `xml:",chardata"`
}

// ParseZbarXML reads zbarcam --xml output from r and calls emit once per
// <index> element with the detections it holds. Payloads keep their line
// breaks; base64 data is decoded. Output outside the document, such as
// warnings printed before the root element, is ignored. It returns nil at
// end of input, including a document cut short because zbarcam was killed,
// and stops early when emit returns false.
func ParseZbarXML(r io.Reader, emit func([]model.Detection) bool) error {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if endOfInput(err) {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "index" {
			continue
		}

		var idx zbarIndex
		if err := dec.DecodeElement(&idx, &start); err != nil {
			if endOfInput(err) {
				return nil
			}
			return err
		}
		if !emit(idx.detections()) {
			return nil
		}
	}
}

func endOfInput(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	var syntaxErr *xml.SyntaxError
	return errors.As(err, &syntaxErr) && syntaxErr.Msg == "unexpected EOF"
}

func (idx zbarIndex) detections() []model.Detection {
	var out []model.Detection
	for _, sym := range idx.Symbols {
		kind, ok := model.ParseSymbology(sym.Type)
		if !ok {
			continue
		}
		payload := sym.Data.Text
		if sym.Data.Format == "base64" {
			raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
			if err != nil {
				continue
			}
			payload = string(raw)
		}
		out = append(out, model.Detection{Symbology: kind, Payload: payload})
	}
	return out
}

// zbarConfigName maps a symbology to its zbar "-S<name>.enable" key.
func zbarConfigName(sym model.Symbology) string {
	switch sym {
	case model.SymbologyQR:
		return "qrcode"
	default:
		return string(sym)
	}
}
