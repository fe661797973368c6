package drugbank

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrEmptyDocument is returned by Parse when the input holds no root element
var ErrEmptyDocument = errors.New("document has no root element")

// Element is one parsed XML element with its direct character data and
// child elements in document order.
type Element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []Element  `xml:",any"`
}

// Find returns the first direct child named {space}local, or nil
func (e *Element) Find(space, local string) *Element {
	for i := range e.Children {
		if matches(e.Children[i].XMLName, space, local) {
			return &e.Children[i]
		}
	}
	return nil
}

// FindAll returns every direct child named {space}local in document order
func (e *Element) FindAll(space, local string) []*Element {
	var found []*Element
	for i := range e.Children {
		if matches(e.Children[i].XMLName, space, local) {
			found = append(found, &e.Children[i])
		}
	}
	return found
}

// Attr returns the value of the attribute with the given local name
func (e *Element) Attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func matches(name xml.Name, space, local string) bool {
	return name.Space == space && name.Local == local
}

// Document is a fully parsed dataset. The whole tree is held in memory.
type Document struct {
	Root Element
}

// Records returns the top-level drug record elements in document order
func (d *Document) Records() []*Element {
	records := make([]*Element, len(d.Root.Children))
	for i := range d.Root.Children {
		records[i] = &d.Root.Children[i]
	}
	return records
}

// Parse reads a complete XML document with exactly one root element.
// Encodings other than UTF-8 declared in the prolog are decoded through the
// x/text charset indexes.
func Parse(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader

	doc := &Document{}
	if err := decoder.Decode(&doc.Root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	if err := expectEnd(decoder); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	return doc, nil
}

// expectEnd consumes what follows the root element. Only whitespace,
// comments and processing instructions may appear there.
func expectEnd(decoder *xml.Decoder) error {
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("junk after document element: <%s>", t.Name.Local)
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return errors.New("junk after document element: text")
			}
		}
	}
}

// charsetReader looks the label up in the IANA index, then the MIME index,
// then the WHATWG index, which also knows aliases such as "utf8".
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	lookups := []func(string) (encoding.Encoding, error){
		ianaindex.IANA.Encoding,
		ianaindex.MIME.Encoding,
		htmlindex.Get,
	}

	for _, lookup := range lookups {
		if enc, err := lookup(label); err == nil && enc != nil {
			return enc.NewDecoder().Reader(input), nil
		}
	}
	return nil, fmt.Errorf("unknown charset %q", label)
}
