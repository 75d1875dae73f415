package model

import (
	"time"

	"github.com/google/uuid"
)

// PageID is a UUID-based identifier for Page
type PageID string

// NewPageID generates a new UUID v4 PageID
func NewPageID() PageID {
	return PageID(uuid.New().String())
}

// NewBlockID generates a stable identifier for a document block.
// Block ids are assigned at block creation and never change afterwards.
func NewBlockID() string {
	return uuid.New().String()
}

// AttrBlockID is the node attribute key carrying the stable block id
const AttrBlockID = "blockId"

// Page represents a document page in a workspace
type Page struct {
	ID          PageID
	WorkspaceID string
	Title       string
	Doc         *Doc
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Doc is the root of a page's structured content: an ordered sequence
// of top-level block nodes under a single "doc" node.
type Doc struct {
	Type    string  `json:"type"`
	Content []*Node `json:"content,omitempty"`
}

// Node is one node of the content tree. Top-level children of Doc are
// blocks, addressable by the stable id stored in Attrs[AttrBlockID].
// Everything below a top-level block is treated as opaque content and
// round-tripped untouched.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Marks   []*Mark        `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// Mark represents inline formatting applied to a text node
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// NewDoc creates an empty document root
func NewDoc() *Doc {
	return &Doc{Type: "doc"}
}

// BlockID returns the stable block id of the node, or "" when the node
// carries none.
func (n *Node) BlockID() string {
	if n.Attrs == nil {
		return ""
	}
	id, _ := n.Attrs[AttrBlockID].(string)
	return id
}

// PlainText flattens the node's inline content into plain text.
// Nested block structure is joined with newlines.
func (n *Node) PlainText() string {
	if n.Text != "" {
		return n.Text
	}
	var out string
	for i, child := range n.Content {
		t := child.PlainText()
		if t == "" {
			continue
		}
		if out != "" && i > 0 && child.Text == "" {
			out += "\n"
		}
		out += t
	}
	return out
}

// NewTextBlock creates a top-level block of the given type holding a
// single text run, with a freshly assigned stable id.
func NewTextBlock(blockType, text string) *Node {
	block := &Node{
		Type:  blockType,
		Attrs: map[string]any{AttrBlockID: NewBlockID()},
	}
	if text != "" {
		block.Content = []*Node{{Type: "text", Text: text}}
	}
	return block
}
