package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/docufy-dev/docufy/pkg/agent/approval"
	"github.com/docufy-dev/docufy/pkg/agent/tool"
	"github.com/docufy-dev/docufy/pkg/agent/tool/core"
	"github.com/docufy-dev/docufy/pkg/domain/interfaces"
	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/domain/types"
	"github.com/docufy-dev/docufy/pkg/service/extract"
	"github.com/docufy-dev/docufy/pkg/service/websearch"
	"github.com/docufy-dev/docufy/pkg/utils/async"
	"github.com/docufy-dev/docufy/pkg/utils/logging"
)

//go:embed prompt/chat_system.md
var chatSystemPromptTmpl string

var chatSystemPrompt = template.Must(template.New("chat_system").Parse(chatSystemPromptTmpl))

// MinFactConfidence is the extractor confidence below which a memory
// candidate is discarded without proposing it to the user.
const MinFactConfidence = 0.6

// DefaultMemoryLimit caps injected memory facts when the workspace does
// not configure its own limit.
const DefaultMemoryLimit = 20

// PartType identifies one structured part of the chat response stream
type PartType string

const (
	PartTypeText            PartType = "text"
	PartTypeThinking        PartType = "thinking"
	PartTypeToolCall        PartType = "tool-call"
	PartTypeToolResult      PartType = "tool-result"
	PartTypeApprovalRequest PartType = "approval-request"
)

// Part is one structured item of the chat response stream
type Part struct {
	Type     PartType         `json:"type"`
	Text     string           `json:"text,omitempty"`
	ToolCall *model.ToolCall  `json:"tool_call,omitempty"`
	Approval *ApprovalRequest `json:"approval,omitempty"`
}

// ApprovalRequest asks the user to decide a pending action
type ApprovalRequest struct {
	ID         model.ApprovalID `json:"id"`
	ToolCallID model.ToolCallID `json:"tool_call_id,omitempty"`
	ToolName   string           `json:"tool_name"`
	Prompt     string           `json:"prompt"`
}

// PartSink receives stream parts as the turn produces them. Sinks must
// be cheap; they run on the turn's critical path.
type PartSink func(ctx context.Context, part *Part)

// ChatRequest is one chat turn. The client holds the conversation
// history; the server is stateless between turns.
type ChatRequest struct {
	WorkspaceID    string              `json:"workspace_id"`
	UserID         string              `json:"user_id"`
	ConversationID string              `json:"conversation_id,omitempty"`
	PageID         model.PageID        `json:"page_id,omitempty"`
	Messages       []model.ChatMessage `json:"messages"`
}

// ChatUseCase drives one assistant turn: memory injection, tool-calling
// with approval gating, and post-turn fact extraction.
type ChatUseCase struct {
	repo      interfaces.Repository
	llmClient gollem.LLMClient
	registry  *model.WorkspaceRegistry
	memory    *MemoryUseCase
	page      *PageUseCase
	extractor *extract.Service
	webSearch websearch.Service
	broker    *approval.Broker
}

// NewChatUseCase creates a new ChatUseCase instance
func NewChatUseCase(repo interfaces.Repository, llmClient gollem.LLMClient, registry *model.WorkspaceRegistry, memory *MemoryUseCase, page *PageUseCase, extractor *extract.Service, webSearch websearch.Service, broker *approval.Broker) *ChatUseCase {
	return &ChatUseCase{
		repo:      repo,
		llmClient: llmClient,
		registry:  registry,
		memory:    memory,
		page:      page,
		extractor: extractor,
		webSearch: webSearch,
		broker:    broker,
	}
}

// HandleTurn processes one chat turn and emits stream parts to the
// sink. It returns after the assistant response and any memory proposal
// have been emitted; pending approvals resolve through the broker.
func (uc *ChatUseCase) HandleTurn(ctx context.Context, req *ChatRequest, sink PartSink) error {
	logger := logging.From(ctx)

	entry, err := uc.registry.Get(req.WorkspaceID)
	if err != nil {
		return err
	}
	if req.UserID == "" {
		return goerr.New("user id is required")
	}

	lastUser, err := lastUserMessage(req.Messages)
	if err != nil {
		return err
	}

	systemPrompt, err := uc.buildSystemPrompt(ctx, entry, req, lastUser)
	if err != nil {
		return err
	}

	// Surface tool progress messages on the stream
	ctx = tool.WithUpdate(ctx, func(ctx context.Context, msg string) {
		sink(ctx, &Part{Type: PartTypeThinking, Text: msg})
	})

	coreTools := core.New(core.Deps{
		Repo:      uc.repo,
		LLMClient: uc.llmClient,
		WebSearch: uc.webSearch,
		Memory:    uc.memory,
		Indexer:   uc.page,
	}, req.WorkspaceID, req.UserID)

	wrapped := make([]gollem.Tool, len(coreTools))
	for i, t := range coreTools {
		wrapped[i] = &streamTool{inner: t, broker: uc.broker, sink: sink}
	}
	registry, err := tool.NewRegistry(wrapped)
	if err != nil {
		return goerr.Wrap(err, "failed to build tool registry",
			goerr.V("workspaceID", req.WorkspaceID))
	}

	agent := gollem.New(uc.llmClient,
		gollem.WithSystemPrompt(systemPrompt),
		gollem.WithTools(registry.Tools()...),
		gollem.WithToolMiddleware(
			func(next gollem.ToolHandler) gollem.ToolHandler {
				return func(ctx context.Context, req *gollem.ToolExecRequest) (*gollem.ToolExecResponse, error) {
					logging.From(ctx).Debug("tool requested", "tool", req.Tool.Name)
					resp, err := next(ctx, req)
					if resp != nil && resp.Error != nil {
						logging.From(ctx).Debug("tool failed", "tool", req.Tool.Name, "error", resp.Error.Error())
					}
					return resp, err
				}
			},
		),
	)

	resp, err := agent.Execute(ctx, gollem.Text(lastUser.Content))
	if err != nil {
		return goerr.Wrap(err, "failed to execute chat agent",
			goerr.V("workspaceID", req.WorkspaceID),
			goerr.V("conversationID", req.ConversationID))
	}

	if text := strings.Join(resp.Texts, "\n"); text != "" {
		sink(ctx, &Part{Type: PartTypeText, Text: text})
	}

	uc.proposeMemoryFact(ctx, req, lastUser, sink)

	logger.Debug("chat turn completed",
		"workspaceID", req.WorkspaceID,
		"userID", req.UserID,
		"conversationID", req.ConversationID)

	return nil
}

// RespondApproval records a user decision for a pending approval.
// Repeated decisions for the same id are no-ops.
func (uc *ChatUseCase) RespondApproval(ctx context.Context, id model.ApprovalID, approved bool) bool {
	reason := ""
	if !approved {
		reason = "denied by user"
	}
	accepted := uc.broker.Resolve(id, approved, reason)
	if !accepted {
		logging.From(ctx).Debug("repeated approval decision ignored", "approvalID", id)
	}
	return accepted
}

func lastUserMessage(messages []model.ChatMessage) (*model.ChatMessage, error) {
	if len(messages) == 0 {
		return nil, goerr.New("message list is empty")
	}
	last := messages[len(messages)-1]
	if last.Role != model.ChatRoleUser {
		return nil, goerr.New("last message must be from the user",
			goerr.V("role", last.Role))
	}
	if strings.TrimSpace(last.Content) == "" {
		return nil, goerr.New("last message is empty")
	}
	return &last, nil
}

// proposeMemoryFact runs the fact extractor on the user's message and,
// when a candidate survives the safety gate, asks the user to approve
// saving it. The wait and the save run off the turn's critical path.
func (uc *ChatUseCase) proposeMemoryFact(ctx context.Context, req *ChatRequest, msg *model.ChatMessage, sink PartSink) {
	candidate := uc.extractor.Extract(ctx, msg.Content)
	if candidate.None() || !candidate.Allowed || candidate.Confidence < MinFactConfidence {
		return
	}

	id := model.NewApprovalID()
	sink(ctx, &Part{
		Type: PartTypeApprovalRequest,
		Approval: &ApprovalRequest{
			ID:       id,
			ToolName: "save_memory_fact",
			Prompt:   tool.ApprovalPrompt("save_memory_fact", map[string]any{"fact": candidate.Fact}),
		},
	})

	workspaceID, userID, sourceID := req.WorkspaceID, req.UserID, msg.ID
	fact := candidate.Fact
	async.Dispatch(ctx, func(ctx context.Context) error {
		decision, err := uc.broker.Wait(ctx, id)
		if err != nil {
			return err
		}
		if !decision.Approved {
			return nil
		}
		_, created, err := uc.memory.SaveFact(ctx, workspaceID, userID, fact, sourceID)
		if err != nil {
			return err
		}
		logging.From(ctx).Info("memory fact saved from extraction",
			"workspaceID", workspaceID,
			"userID", userID,
			"created", created)
		return nil
	})
}

// chatPromptMessage represents a history message for template rendering
type chatPromptMessage struct {
	Role    string
	Content string
}

// chatPromptData holds all data for the chat system prompt template
type chatPromptData struct {
	WorkspaceName string
	Language      string
	Memories      []string
	History       []chatPromptMessage
	PageTitle     string
}

func (uc *ChatUseCase) buildSystemPrompt(ctx context.Context, entry *model.WorkspaceEntry, req *ChatRequest, lastUser *model.ChatMessage) (string, error) {
	logger := logging.From(ctx)

	limit := entry.MemoryLimit
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}

	// Memory retrieval is best effort; a failed lookup degrades the
	// prompt, not the turn.
	var memories []string
	seen := make(map[model.MemoryFactID]bool)
	appendFacts := func(facts []*model.MemoryFact) {
		for _, f := range facts {
			if seen[f.ID] || len(memories) >= limit {
				continue
			}
			seen[f.ID] = true
			memories = append(memories, f.Content)
		}
	}

	recent, err := uc.memory.ListRecentFacts(ctx, req.WorkspaceID, req.UserID, limit)
	if err != nil {
		logger.Warn("failed to load recent memories", "error", err.Error())
	}
	appendFacts(recent)

	similar, err := uc.memory.SearchFacts(ctx, req.WorkspaceID, req.UserID, lastUser.Content, 5)
	if err != nil {
		logger.Warn("failed to search similar memories", "error", err.Error())
	}
	appendFacts(similar)

	data := chatPromptData{
		WorkspaceName: entry.Workspace.Name,
		Language:      entry.Language,
		Memories:      memories,
	}

	for _, m := range req.Messages[:len(req.Messages)-1] {
		data.History = append(data.History, chatPromptMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	if req.PageID != "" {
		page, err := uc.page.GetPage(ctx, req.WorkspaceID, req.PageID)
		if err != nil {
			logger.Warn("failed to load active page", "pageID", req.PageID, "error", err.Error())
		} else {
			data.PageTitle = page.Title
		}
	}

	var buf bytes.Buffer
	if err := chatSystemPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render chat system prompt")
	}
	return buf.String(), nil
}

// streamTool decorates a tool with the call lifecycle: it emits state
// transitions and results as stream parts and holds approval-gated
// tools until the user decides.
type streamTool struct {
	inner  gollem.Tool
	broker *approval.Broker
	sink   PartSink
}

func (t *streamTool) Spec() gollem.ToolSpec {
	return t.inner.Spec()
}

func (t *streamTool) emitCall(ctx context.Context, call *model.ToolCall) {
	snapshot := *call
	t.sink(ctx, &Part{Type: PartTypeToolCall, ToolCall: &snapshot})
}

func (t *streamTool) emitResult(ctx context.Context, call *model.ToolCall) {
	snapshot := *call
	t.sink(ctx, &Part{Type: PartTypeToolResult, ToolCall: &snapshot})
}

func (t *streamTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	name := t.inner.Spec().Name

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to serialize tool arguments", goerr.V("tool", name))
	}

	// By the time Run is invoked the arguments are fully assembled, so
	// the input states collapse into one emitted update.
	call := model.NewToolCall(name, string(argsJSON))
	call.Transition(types.ToolCallStateInputStreaming)
	call.Transition(types.ToolCallStateInputComplete)
	t.emitCall(ctx, call)

	if tool.RequiresApproval(name) {
		ap := &model.Approval{ID: model.NewApprovalID()}
		call.Approval = ap
		call.Transition(types.ToolCallStateApprovalRequested)
		t.sink(ctx, &Part{
			Type: PartTypeApprovalRequest,
			Approval: &ApprovalRequest{
				ID:         ap.ID,
				ToolCallID: call.ID,
				ToolName:   name,
				Prompt:     tool.ApprovalPrompt(name, args),
			},
		})

		decision, err := t.broker.Wait(ctx, ap.ID)
		if err != nil {
			return nil, err
		}

		approved := decision.Approved
		ap.Approved = &approved
		ap.DecidedAt = time.Now().UTC()
		ap.Reason = decision.Reason
		call.Transition(types.ToolCallStateApprovalResponded)
		t.emitCall(ctx, call)

		if !approved {
			reason := decision.Reason
			if reason == "" {
				reason = "denied by user"
			}
			call.Output = map[string]any{"denied": true, "reason": reason}
			call.Transition(types.ToolCallStateResultDelivered)
			t.emitResult(ctx, call)
			return call.Output, nil
		}
	}

	call.Transition(types.ToolCallStateExecuting)
	t.emitCall(ctx, call)

	out, err := t.inner.Run(ctx, args)
	if err != nil {
		// Structured failure so the assistant can explain it; the error
		// still propagates to the agent loop.
		call.Output = map[string]any{"error": err.Error()}
		call.Transition(types.ToolCallStateResultDelivered)
		t.emitResult(ctx, call)
		return nil, err
	}

	call.Output = out
	call.Transition(types.ToolCallStateResultDelivered)
	t.emitResult(ctx, call)
	return out, nil
}
