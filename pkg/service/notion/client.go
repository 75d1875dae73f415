package notion

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
)

// client implements Service interface
type client struct {
	api *notionapi.Client
}

// New creates a new Notion service with the provided API token
func New(token string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Notion API token is required")
	}

	return &client{
		api: notionapi.NewClient(
			notionapi.Token(token),
			notionapi.WithRetry(3), // Retry up to 3 times on rate limit (HTTP 429)
		),
	}, nil
}

// FetchPage retrieves a single page including its title and blocks
func (c *client) FetchPage(ctx context.Context, pageID string) (*Page, error) {
	pageObj, err := c.api.Page.Get(ctx, notionapi.PageID(pageID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get page", goerr.V("pageID", pageID))
	}

	blocks, err := c.fetchBlocksRecursively(ctx, pageID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch page blocks", goerr.V("pageID", pageID))
	}

	page := &Page{
		ID:             pageObj.ID.String(),
		Title:          extractTitle(pageObj.Properties),
		Blocks:         blocks,
		CreatedTime:    time.Time(pageObj.CreatedTime),
		LastEditedTime: time.Time(pageObj.LastEditedTime),
		URL:            pageObj.URL,
	}

	return page, nil
}

// extractTitle finds the title property among the page properties
func extractTitle(props notionapi.Properties) string {
	for _, prop := range props {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			return extractRichText(title.Title)
		}
	}
	return ""
}

// fetchBlocksRecursively retrieves all blocks for a page or block, including nested children
func (c *client) fetchBlocksRecursively(ctx context.Context, blockID string) (Blocks, error) {
	var blocks Blocks
	var cursor notionapi.Cursor

	for {
		resp, err := c.api.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    100,
		})

		if err != nil {
			return nil, goerr.Wrap(err, "failed to get block children", goerr.V("blockID", blockID))
		}

		for _, blockObj := range resp.Results {
			block, err := c.convertBlock(ctx, blockObj)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert block", goerr.V("blockID", blockObj.GetID()))
			}
			blocks = append(blocks, block)
		}

		if !resp.HasMore {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return blocks, nil
}

// convertBlock converts a Notion API block to our Block type
func (c *client) convertBlock(ctx context.Context, blockObj notionapi.Block) (Block, error) {
	block := Block{
		ID:   blockObj.GetID().String(),
		Type: string(blockObj.GetType()),
	}

	// Extract text based on block type
	switch blockObj.GetType() {
	case notionapi.BlockTypeParagraph:
		if p, ok := blockObj.(*notionapi.ParagraphBlock); ok {
			block.Text = extractRichText(p.Paragraph.RichText)
		}
	case notionapi.BlockTypeHeading1:
		if h, ok := blockObj.(*notionapi.Heading1Block); ok {
			block.Text = extractRichText(h.Heading1.RichText)
		}
	case notionapi.BlockTypeHeading2:
		if h, ok := blockObj.(*notionapi.Heading2Block); ok {
			block.Text = extractRichText(h.Heading2.RichText)
		}
	case notionapi.BlockTypeHeading3:
		if h, ok := blockObj.(*notionapi.Heading3Block); ok {
			block.Text = extractRichText(h.Heading3.RichText)
		}
	case notionapi.BlockTypeBulletedListItem:
		if b, ok := blockObj.(*notionapi.BulletedListItemBlock); ok {
			block.Text = extractRichText(b.BulletedListItem.RichText)
		}
	case notionapi.BlockTypeNumberedListItem:
		if n, ok := blockObj.(*notionapi.NumberedListItemBlock); ok {
			block.Text = extractRichText(n.NumberedListItem.RichText)
		}
	case notionapi.BlockTypeCode:
		if code, ok := blockObj.(*notionapi.CodeBlock); ok {
			block.Text = extractRichText(code.Code.RichText)
			block.Language = code.Code.Language
		}
	case notionapi.BlockTypeQuote:
		if q, ok := blockObj.(*notionapi.QuoteBlock); ok {
			block.Text = extractRichText(q.Quote.RichText)
		}
	case notionapi.BlockTypeCallout:
		if co, ok := blockObj.(*notionapi.CalloutBlock); ok {
			block.Text = extractRichText(co.Callout.RichText)
		}
	case notionapi.BlockTypeToggle:
		if t, ok := blockObj.(*notionapi.ToggleBlock); ok {
			block.Text = extractRichText(t.Toggle.RichText)
		}
	case notionapi.BlockTypeToDo:
		if todo, ok := blockObj.(*notionapi.ToDoBlock); ok {
			block.Text = extractRichText(todo.ToDo.RichText)
			block.Checked = todo.ToDo.Checked
		}
	case notionapi.BlockTypeDivider:
		// No text
	default:
		// Unsupported block types carry no text
	}

	// Recursively fetch children if the block has any
	if blockObj.GetHasChildren() {
		children, err := c.fetchBlocksRecursively(ctx, blockObj.GetID().String())
		if err != nil {
			return block, goerr.Wrap(err, "failed to fetch children blocks", goerr.V("blockID", blockObj.GetID()), goerr.V("blockType", blockObj.GetType()))
		}
		block.Children = children
	}

	return block, nil
}
