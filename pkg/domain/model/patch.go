package model

import (
	"fmt"
	"strings"
)

// BlockOpKind identifies the intent of a block-level operation
type BlockOpKind string

const (
	// BlockOpReplaceText replaces a block's inline content with a
	// single text run.
	BlockOpReplaceText BlockOpKind = "replace_text"
)

// BlockOp is one block-level operation addressed by a stable block id.
// Only top-level blocks are addressable; content nested below a block
// must be replaced through the whole block.
type BlockOp struct {
	Kind    BlockOpKind `json:"kind"`
	BlockID string      `json:"block_id"`
	Text    string      `json:"text"`
}

// BlockOpResult reports the outcome of a single operation. Failures are
// per-operation so a batch can be partially applied and explained.
type BlockOpResult struct {
	BlockID string `json:"block_id"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// ApplyBlockOps applies block-level operations to the document in order
// and returns one result per operation. An unknown block id or kind
// fails that operation only; the rest of the batch still applies.
// Untouched blocks are never normalized or reformatted.
func ApplyBlockOps(doc *Doc, ops []BlockOp) []BlockOpResult {
	results := make([]BlockOpResult, len(ops))

	for i, op := range ops {
		results[i] = BlockOpResult{BlockID: op.BlockID}

		idx := findBlockIndex(doc, op.BlockID)
		if idx < 0 {
			results[i].Error = fmt.Sprintf("block not found: %s", op.BlockID)
			continue
		}

		switch op.Kind {
		case BlockOpReplaceText, "":
			// Empty kind defaults to text replacement for tool-call
			// payloads that omit it.
			setBlockText(doc.Content[idx], op.Text)
			results[i].Applied = true
		default:
			results[i].Error = fmt.Sprintf("unsupported operation: %s", op.Kind)
		}
	}

	return results
}

// findBlockIndex resolves a block id to its index among the top-level
// children via linear scan.
func findBlockIndex(doc *Doc, blockID string) int {
	if doc == nil || blockID == "" {
		return -1
	}
	for i, block := range doc.Content {
		if block.BlockID() == blockID {
			return i
		}
	}
	return -1
}

// setBlockText sets a block's inline content to a single text run.
// CRLF line endings are normalized to LF. Empty text clears the block's
// content without deleting the block itself.
func setBlockText(block *Node, text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		block.Content = nil
		return
	}
	block.Content = []*Node{{Type: "text", Text: text}}
}
