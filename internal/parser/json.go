package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	stderrors "errors" // Standard errors package

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
)

// jsonParser walks the decoder token stream so that object members keep
// their source order, which decoding into a map would lose.
type jsonParser struct {
	dec  *json.Decoder
	text string
}

func parseJSON(text string) (*models.Value, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewInputError("input is empty", errors.ErrEmptyInput)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber() // Ensure numbers are read as json.Number
	p := &jsonParser{dec: dec, text: text}

	root, err := p.value()
	if err != nil {
		return nil, err
	}

	// Anything after the first value other than whitespace is rejected.
	tok, err := dec.Token()
	switch {
	case stderrors.Is(err, io.EOF):
		return root, nil
	case err != nil:
		return nil, p.wrap("invalid trailing data after first JSON value", err)
	default:
		return nil, p.errorAt(fmt.Sprintf("unexpected %v after first JSON value", describeToken(tok)), errors.ErrMultipleJSON)
	}
}

func (p *jsonParser) value() (*models.Value, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return nil, p.wrap("failed to decode JSON", err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return p.object()
		case '[':
			return p.array()
		default:
			return nil, p.errorAt(fmt.Sprintf("unexpected '%c'", rune(t)), errors.ErrInvalidJSON)
		}
	case nil:
		return models.Null(), nil
	case bool:
		return models.Bool(t), nil
	case string:
		return models.String(t), nil
	case json.Number:
		n, err := models.NumberFromLiteral(t.String())
		if err != nil {
			return nil, p.errorAt(err.Error(), errors.ErrInvalidJSON)
		}
		return models.NumberValue(n), nil
	default:
		return nil, p.errorAt(fmt.Sprintf("unexpected token %v", tok), errors.ErrInvalidJSON)
	}
}

func (p *jsonParser) object() (*models.Value, error) {
	obj := models.Object()
	for p.dec.More() {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.wrap("failed to read object key", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, p.errorAt(fmt.Sprintf("object key must be a string, got %v", describeToken(tok)), errors.ErrInvalidJSON)
		}
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		// A repeated key keeps its first position and takes the last value.
		obj.Set(key, val)
	}
	if err := p.closing('}'); err != nil {
		return nil, err
	}
	return obj, nil
}

func (p *jsonParser) array() (*models.Value, error) {
	arr := models.Array()
	for p.dec.More() {
		item, err := p.value()
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, item)
	}
	if err := p.closing(']'); err != nil {
		return nil, err
	}
	return arr, nil
}

func (p *jsonParser) closing(want json.Delim) error {
	tok, err := p.dec.Token()
	if err != nil {
		return p.wrap(fmt.Sprintf("expected '%c'", rune(want)), err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return p.errorAt(fmt.Sprintf("expected '%c', got %v", rune(want), describeToken(tok)), errors.ErrInvalidJSON)
	}
	return nil
}

// wrap turns decoder errors into parsing errors carrying a position.
func (p *jsonParser) wrap(message string, err error) error {
	var syntaxError *json.SyntaxError
	if stderrors.As(err, &syntaxError) {
		// SyntaxError.Offset is relative to the value being decoded when the
		// decoder falls back to Decode, so report the stream offset instead.
		line, col := position(p.text, int(p.dec.InputOffset()))
		return errors.NewParsingError(syntaxError.Error(), errors.ErrInvalidJSON).WithPos(line, col)
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		line, col := position(p.text, len(p.text))
		return errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON).WithPos(line, col)
	}
	return errors.NewParsingError(message, err)
}

func (p *jsonParser) errorAt(message string, err error) error {
	line, col := position(p.text, int(p.dec.InputOffset()))
	return errors.NewParsingError(message, err).WithPos(line, col)
}

func describeToken(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		return fmt.Sprintf("'%c'", rune(t))
	case string:
		return fmt.Sprintf("string %q", t)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", t)
	}
}
