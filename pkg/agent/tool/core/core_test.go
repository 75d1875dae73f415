package core_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/docufy-dev/docufy/pkg/agent/tool"
	"github.com/docufy-dev/docufy/pkg/agent/tool/core"
	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/repository/memory"
	"github.com/docufy-dev/docufy/pkg/service/websearch"
)

const (
	testWorkspaceID = "ws-tool-test"
	testUserID      = "user-tool-test"
)

// newCtxWithUpdateCapture returns a context that captures all update messages
// and a pointer to the slice where they are appended.
func newCtxWithUpdateCapture() (context.Context, *[]string) {
	var messages []string
	ctx := tool.WithUpdate(context.Background(), func(_ context.Context, msg string) {
		messages = append(messages, msg)
	})
	return ctx, &messages
}

// ----- mock LLM client -----

type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (m *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (m *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	if m.generateEmbeddingFn != nil {
		return m.generateEmbeddingFn(ctx, dimension, input)
	}
	vectors := make([][]float64, len(input))
	for i := range input {
		vec := make([]float64, dimension)
		vec[0] = 1
		vectors[i] = vec
	}
	return vectors, nil
}

// ----- mock memory writer -----

type mockMemoryWriter struct {
	saved   []string
	created bool
}

func (m *mockMemoryWriter) SaveFact(ctx context.Context, workspaceID, userID, content, sourceMessageID string) (*model.MemoryFact, bool, error) {
	m.saved = append(m.saved, content)
	return &model.MemoryFact{
		ID:          model.NewMemoryFactID(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Content:     content,
	}, m.created, nil
}

// ----- mock page indexer -----

type mockPageIndexer struct {
	reindexed []model.PageID
}

func (m *mockPageIndexer) ReindexPage(ctx context.Context, workspaceID string, page *model.Page) error {
	m.reindexed = append(m.reindexed, page.ID)
	return nil
}

// ----- mock web search -----

type mockWebSearch struct {
	results []websearch.Result
}

func (m *mockWebSearch) Search(ctx context.Context, query string) ([]websearch.Result, error) {
	return m.results, nil
}

func newTestPage(t *testing.T, repo *memory.Memory, title string, blockTexts ...string) *model.Page {
	t.Helper()
	doc := model.NewDoc()
	for _, text := range blockTexts {
		doc.Content = append(doc.Content, model.NewTextBlock("paragraph", text))
	}
	page, err := repo.Page().Create(context.Background(), testWorkspaceID, &model.Page{
		Title: title,
		Doc:   doc,
	})
	gt.NoError(t, err).Required()
	return page
}

func findTool(t *testing.T, tools []gollem.Tool, name string) gollem.Tool {
	t.Helper()
	for _, tl := range tools {
		if tl.Spec().Name == name {
			return tl
		}
	}
	t.Fatalf("tool %s not found", name)
	return nil
}

func newTestTools(repo *memory.Memory, mem *mockMemoryWriter, idx *mockPageIndexer, ws websearch.Service) []gollem.Tool {
	return core.New(core.Deps{
		Repo:      repo,
		LLMClient: &mockLLMClient{},
		WebSearch: ws,
		Memory:    mem,
		Indexer:   idx,
	}, testWorkspaceID, testUserID)
}

func TestToolSet(t *testing.T) {
	repo := memory.New()
	tools := newTestTools(repo, &mockMemoryWriter{}, &mockPageIndexer{}, &mockWebSearch{})

	names := make([]string, len(tools))
	for i, tl := range tools {
		names[i] = tl.Spec().Name
	}
	gt.Array(t, names).Equal([]string{
		"search_pages",
		"get_page",
		"rename_page",
		"update_page",
		"save_memory_fact",
		"web_search_jina",
	})

	// Without a web search provider the tool is absent
	tools = newTestTools(repo, &mockMemoryWriter{}, &mockPageIndexer{}, nil)
	for _, tl := range tools {
		gt.Value(t, tl.Spec().Name).NotEqual("web_search_jina")
	}
}

func TestToolSet_RegistersCleanly(t *testing.T) {
	repo := memory.New()
	tools := newTestTools(repo, &mockMemoryWriter{}, &mockPageIndexer{}, &mockWebSearch{})

	reg, err := tool.NewRegistry(tools)
	gt.NoError(t, err).Required()
	gt.Array(t, reg.Tools()).Length(len(tools))

	for _, tl := range tools {
		bound, ok := reg.Get(tl.Spec().Name)
		gt.Bool(t, ok).True()
		gt.Value(t, bound.Spec().Name).Equal(tl.Spec().Name)
	}
}

func TestGetPageTool(t *testing.T) {
	repo := memory.New()
	page := newTestPage(t, repo, "Team Handbook", "Welcome", "Processes", "Contacts")

	tools := newTestTools(repo, &mockMemoryWriter{}, &mockPageIndexer{}, nil)
	getPage := findTool(t, tools, "get_page")

	ctx, _ := newCtxWithUpdateCapture()
	result, err := getPage.Run(ctx, map[string]any{"pageId": string(page.ID)})
	gt.NoError(t, err).Required()

	gt.Value(t, result["pageId"]).Equal(string(page.ID))
	gt.Value(t, result["title"]).Equal("Team Handbook")

	blocks := result["blocks"].([]map[string]any)
	gt.Array(t, blocks).Length(3)
	for i, want := range []string{"Welcome", "Processes", "Contacts"} {
		gt.Value(t, blocks[i]["text"]).Equal(want)
		gt.Value(t, blocks[i]["id"]).Equal(page.Doc.Content[i].BlockID())
	}
}

func TestGetPageTool_MissingArgument(t *testing.T) {
	repo := memory.New()
	tools := newTestTools(repo, &mockMemoryWriter{}, &mockPageIndexer{}, nil)
	getPage := findTool(t, tools, "get_page")

	_, err := getPage.Run(context.Background(), map[string]any{})
	gt.Error(t, err)
}

func TestRenamePageTool(t *testing.T) {
	repo := memory.New()
	page := newTestPage(t, repo, "Old Title", "Body")

	tools := newTestTools(repo, &mockMemoryWriter{}, &mockPageIndexer{}, nil)
	rename := findTool(t, tools, "rename_page")

	ctx, _ := newCtxWithUpdateCapture()
	result, err := rename.Run(ctx, map[string]any{
		"pageId": string(page.ID),
		"title":  "New Title",
	})
	gt.NoError(t, err).Required()
	gt.Value(t, result["title"]).Equal("New Title")

	stored, err := repo.Page().Get(context.Background(), testWorkspaceID, page.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.Title).Equal("New Title")
}

func TestUpdatePageTool(t *testing.T) {
	repo := memory.New()
	page := newTestPage(t, repo, "Notes", "First", "Second")
	idx := &mockPageIndexer{}

	tools := newTestTools(repo, &mockMemoryWriter{}, idx, nil)
	update := findTool(t, tools, "update_page")

	ctx, _ := newCtxWithUpdateCapture()
	result, err := update.Run(ctx, map[string]any{
		"pageId": string(page.ID),
		"ops": []any{
			map[string]any{
				"blockId": page.Doc.Content[0].BlockID(),
				"text":    "Rewritten",
			},
		},
	})
	gt.NoError(t, err).Required()
	gt.Value(t, result["applied"]).Equal(1)

	stored, err := repo.Page().Get(context.Background(), testWorkspaceID, page.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.Doc.Content[0].PlainText()).Equal("Rewritten")
	gt.Value(t, stored.Doc.Content[1].PlainText()).Equal("Second")

	gt.Array(t, idx.reindexed).Equal([]model.PageID{page.ID})
}

func TestUpdatePageTool_UnknownBlockID(t *testing.T) {
	repo := memory.New()
	page := newTestPage(t, repo, "Notes", "First")
	idx := &mockPageIndexer{}

	tools := newTestTools(repo, &mockMemoryWriter{}, idx, nil)
	update := findTool(t, tools, "update_page")

	ctx, _ := newCtxWithUpdateCapture()
	result, err := update.Run(ctx, map[string]any{
		"pageId": string(page.ID),
		"ops": []any{
			map[string]any{"blockId": "no-such-block", "text": "x"},
		},
	})
	gt.NoError(t, err).Required()
	gt.Value(t, result["applied"]).Equal(0)

	results := result["results"].([]map[string]any)
	gt.Array(t, results).Length(1)
	gt.Value(t, results[0]["applied"]).Equal(false)

	// Document untouched, index untouched
	stored, err := repo.Page().Get(context.Background(), testWorkspaceID, page.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.Doc.Content[0].PlainText()).Equal("First")
	gt.Array(t, idx.reindexed).Length(0)
}

func TestSearchPagesTool(t *testing.T) {
	repo := memory.New()
	page := newTestPage(t, repo, "Release Plan", "Ship the beta in October")

	// Index the page's block so similarity search can find it
	vec := make([]float32, model.EmbeddingDimension)
	vec[0] = 1
	chunk := &model.Chunk{
		ID:          model.NewChunkID(),
		WorkspaceID: testWorkspaceID,
		PageID:      page.ID,
		BlockID:     page.Doc.Content[0].BlockID(),
		Text:        "Ship the beta in October",
		ContentHash: model.ContentHash("Ship the beta in October"),
		Embedding:   vec,
	}
	gt.NoError(t, repo.Chunk().ReplacePage(context.Background(), testWorkspaceID, page.ID, []*model.Chunk{chunk}))

	tools := newTestTools(repo, &mockMemoryWriter{}, &mockPageIndexer{}, nil)
	search := findTool(t, tools, "search_pages")

	ctx, messages := newCtxWithUpdateCapture()
	result, err := search.Run(ctx, map[string]any{"query": "beta release"})
	gt.NoError(t, err).Required()

	results := result["results"].([]map[string]any)
	gt.Array(t, results).Length(1)
	gt.Value(t, results[0]["pageId"]).Equal(string(page.ID))
	gt.Value(t, results[0]["title"]).Equal("Release Plan")

	gt.Array(t, *messages).Length(1)
}

func TestSaveMemoryFactTool(t *testing.T) {
	repo := memory.New()
	mem := &mockMemoryWriter{created: true}

	tools := newTestTools(repo, mem, &mockPageIndexer{}, nil)
	save := findTool(t, tools, "save_memory_fact")

	ctx, _ := newCtxWithUpdateCapture()
	result, err := save.Run(ctx, map[string]any{"fact": "Prefers concise answers"})
	gt.NoError(t, err).Required()
	gt.Value(t, result["created"]).Equal(true)
	gt.Array(t, mem.saved).Equal([]string{"Prefers concise answers"})
}

func TestSaveMemoryFactTool_Validation(t *testing.T) {
	repo := memory.New()
	mem := &mockMemoryWriter{}

	tools := newTestTools(repo, mem, &mockPageIndexer{}, nil)
	save := findTool(t, tools, "save_memory_fact")

	_, err := save.Run(context.Background(), map[string]any{"fact": "   "})
	gt.Error(t, err)

	long := make([]byte, model.MaxFactLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = save.Run(context.Background(), map[string]any{"fact": string(long)})
	gt.Error(t, err)

	gt.Array(t, mem.saved).Length(0)
}

func TestWebSearchTool(t *testing.T) {
	repo := memory.New()
	ws := &mockWebSearch{results: []websearch.Result{
		{Title: "Go blog", URL: "https://go.dev/blog", Snippet: "Latest posts"},
	}}

	tools := newTestTools(repo, &mockMemoryWriter{}, &mockPageIndexer{}, ws)
	search := findTool(t, tools, "web_search_jina")

	ctx, _ := newCtxWithUpdateCapture()
	result, err := search.Run(ctx, map[string]any{"query": "golang"})
	gt.NoError(t, err).Required()

	results := result["results"].([]map[string]any)
	gt.Array(t, results).Length(1)
	gt.Value(t, results[0]["url"]).Equal("https://go.dev/blog")
}
