// Package document loads player batch files and checks their structure before
// any record is decoded.
package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/net/html/charset"

	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
)

// RootName is the only accepted document element.
const RootName = "players"

// Node is one child element of the document root, kept in raw form so the
// record parser can decode it into whatever type its tag maps to.
type Node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   []byte     `xml:",innerxml"`
}

// Name returns the local tag name of the node.
func (n Node) Name() string {
	return n.XMLName.Local
}

// OuterXML renders the node including its own start and end tags.
func (n Node) OuterXML() []byte {
	var buf bytes.Buffer
	buf.Grow(len(n.Inner) + 2*len(n.XMLName.Local) + 5)

	buf.WriteByte('<')
	buf.WriteString(n.XMLName.Local)
	for _, attr := range n.Attrs {
		buf.WriteByte(' ')
		if attr.Name.Space == "xmlns" {
			buf.WriteString("xmlns:")
		}
		buf.WriteString(attr.Name.Local)
		buf.WriteString(`="`)
		_ = xml.EscapeText(&buf, []byte(attr.Value))
		buf.WriteByte('"')
	}
	buf.WriteByte('>')
	buf.Write(n.Inner)
	buf.WriteString("</")
	buf.WriteString(n.XMLName.Local)
	buf.WriteByte('>')
	return buf.Bytes()
}

func (n Node) String() string {
	return string(n.OuterXML())
}

// Document is a structurally valid batch file held in memory.
type Document struct {
	Path  string
	Root  string
	Nodes []Node
}

// Filename returns the base name of the source file, or "" for documents
// parsed from memory.
func (d *Document) Filename() string {
	if d.Path == "" {
		return ""
	}
	return filepath.Base(d.Path)
}

// Load reads path into memory and validates it with Parse.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errspkg.ErrDocumentNotFound, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Parse validates data as a players document. The whole input must be well
// formed before the root name and the child count are looked at.
func Parse(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	doc := &Document{}
	root, err := readRoot(dec)
	if err != nil {
		return nil, err
	}
	doc.Root = root.Name.Local

	if err := readChildren(dec, doc); err != nil {
		return nil, err
	}
	if err := readTrailer(dec); err != nil {
		return nil, err
	}

	if doc.Root != RootName {
		return nil, fmt.Errorf("%w: got <%s>, want <%s>", errspkg.ErrInvalidRoot, doc.Root, RootName)
	}
	if len(doc.Nodes) == 0 {
		return nil, errspkg.ErrEmptyDocument
	}
	return doc, nil
}

func readRoot(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return xml.StartElement{}, malformed(errors.New("no root element"))
		}
		if err != nil {
			return xml.StartElement{}, malformed(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return t, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return xml.StartElement{}, malformed(errors.New("text before root element"))
			}
		}
	}
}

func readChildren(dec *xml.Decoder, doc *Document) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return malformed(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			var node Node
			if err := dec.DecodeElement(&node, &t); err != nil {
				return malformed(err)
			}
			doc.Nodes = append(doc.Nodes, node)
		case xml.EndElement:
			return nil
		}
	}
}

func readTrailer(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return malformed(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return malformed(fmt.Errorf("second root element <%s>", t.Name.Local))
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return malformed(errors.New("text after root element"))
			}
		}
	}
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", errspkg.ErrMalformedDocument, err)
}
