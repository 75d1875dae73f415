package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// Service provides interface to the Notion API for page import
type Service interface {
	// FetchPage retrieves a single page with its full block content
	FetchPage(ctx context.Context, pageID string) (*Page, error)
}

// Page represents a Notion page prepared for import
type Page struct {
	ID             string
	Title          string
	Blocks         Blocks
	CreatedTime    time.Time
	LastEditedTime time.Time
	URL            string
}

// Block represents a Notion block with its inline text already
// extracted, plus recursive children
type Block struct {
	ID       string
	Type     string
	Text     string
	Checked  bool
	Language string
	Children Blocks
}

// Blocks is a slice of Block with helper methods
type Blocks []Block

// Flatten returns the blocks as a single depth-first sequence.
// Nested children follow their parent; empty blocks are dropped
// except dividers, which carry no text by nature.
func (b Blocks) Flatten() Blocks {
	var out Blocks
	for _, block := range b {
		children := block.Children
		block.Children = nil
		if block.Text != "" || block.Type == "divider" {
			out = append(out, block)
		}
		if len(children) > 0 {
			out = append(out, children.Flatten()...)
		}
	}
	return out
}

// extractRichText extracts text from Notion rich text content,
// keeping inline annotations as Markdown
func extractRichText(richText []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range richText {
		sb.WriteString(formatRichText(rt))
	}
	return sb.String()
}

func formatRichText(rt notionapi.RichText) string {
	text := rt.PlainText

	if rt.Annotations != nil {
		if rt.Annotations.Bold {
			text = "**" + text + "**"
		}
		if rt.Annotations.Italic {
			text = "*" + text + "*"
		}
		if rt.Annotations.Code {
			text = "`" + text + "`"
		}
		if rt.Annotations.Strikethrough {
			text = "~~" + text + "~~"
		}
	}

	if rt.Href != "" {
		text = fmt.Sprintf("[%s](%s)", text, rt.Href)
	}

	return text
}
