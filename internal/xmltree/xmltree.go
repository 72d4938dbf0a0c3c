// Package xmltree decodes an XML document into a small element tree with
// descendant lookups, the shape the timetable adapters read from.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Node is one XML element.
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []*Node
	text     strings.Builder
}

// Parse decodes a complete document and returns its root element.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	var (
		root  *Node
		stack []*Node
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			if len(t.Attr) > 0 {
				n.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					n.Attrs[a.Name.Local] = a.Value
				}
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("decode xml: empty document")
	}
	return root, nil
}

// Text returns the text content of n and all its descendants, trimmed, with
// non-breaking spaces turned into plain spaces.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.collect(&b)
	return strings.TrimSpace(strings.ReplaceAll(b.String(), "\u00a0", " "))
}

func (n *Node) collect(b *strings.Builder) {
	b.WriteString(n.text.String())
	for _, c := range n.Children {
		c.collect(b)
	}
}

// Attr returns the trimmed attribute value or "".
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Attrs[name])
}

// Find returns the first descendant named name in document order.
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// FindAll returns every descendant named name in document order.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	n.walk(func(c *Node) {
		if c.Name == name {
			out = append(out, c)
		}
	})
	return out
}

// Select returns the elements matching a child chain such as
// Select("Klassen", "Kl", "Kurz"): the first step matches any descendant,
// every further step a direct child of the previous match.
func (n *Node) Select(path ...string) []*Node {
	if n == nil || len(path) == 0 {
		return nil
	}
	cur := n.FindAll(path[0])
	for _, step := range path[1:] {
		var next []*Node
		for _, c := range cur {
			for _, cc := range c.Children {
				if cc.Name == step {
					next = append(next, cc)
				}
			}
		}
		cur = next
	}
	return cur
}

// ChildText returns the text of the first descendant named name.
func (n *Node) ChildText(name string) string {
	return n.Find(name).Text()
}

// ChildInt returns the integer value of the first descendant named name, or
// 0 when it is missing or not a number.
func (n *Node) ChildInt(name string) int {
	v, err := strconv.Atoi(n.ChildText(name))
	if err != nil {
		return 0
	}
	return v
}

func (n *Node) walk(fn func(*Node)) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		fn(c)
		c.walk(fn)
	}
}

// charsetReader accepts the single-byte encodings some plan exports declare.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	var cm *charmap.Charmap
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "":
		return input, nil
	case "iso-8859-1", "latin1", "l1":
		cm = charmap.ISO8859_1
	case "iso-8859-15", "latin9":
		cm = charmap.ISO8859_15
	case "windows-1252", "cp1252":
		cm = charmap.Windows1252
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return cm.NewDecoder().Reader(input), nil
}
