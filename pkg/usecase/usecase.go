package usecase

import (
	"time"

	"github.com/m-mizutani/gollem"

	"github.com/docufy-dev/docufy/pkg/agent/approval"
	"github.com/docufy-dev/docufy/pkg/domain/interfaces"
	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/service/embedding"
	"github.com/docufy-dev/docufy/pkg/service/extract"
	"github.com/docufy-dev/docufy/pkg/service/notion"
	"github.com/docufy-dev/docufy/pkg/service/websearch"
)

type UseCases struct {
	Memory *MemoryUseCase
	Page   *PageUseCase
	Chat   *ChatUseCase

	Broker *approval.Broker
}

// options holds construction-time settings; nothing here is retained
// after New returns.
type options struct {
	webSearch       websearch.Service
	notionService   notion.Service
	approvalTimeout time.Duration
}

type Option func(*options)

// WithWebSearch enables the web_search_jina tool
func WithWebSearch(svc websearch.Service) Option {
	return func(o *options) {
		o.webSearch = svc
	}
}

// WithNotion enables Notion page import
func WithNotion(svc notion.Service) Option {
	return func(o *options) {
		o.notionService = svc
	}
}

// WithApprovalTimeout overrides the auto-deny timeout for pending tool
// approvals
func WithApprovalTimeout(d time.Duration) Option {
	return func(o *options) {
		o.approvalTimeout = d
	}
}

func New(repo interfaces.Repository, llmClient gollem.LLMClient, registry *model.WorkspaceRegistry, opts ...Option) (*UseCases, error) {
	o := options{approvalTimeout: approval.DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	embedder, err := embedding.New(llmClient)
	if err != nil {
		return nil, err
	}
	extractor, err := extract.New(llmClient)
	if err != nil {
		return nil, err
	}

	uc := &UseCases{}
	uc.Broker = approval.New(approval.WithTimeout(o.approvalTimeout))
	uc.Memory = NewMemoryUseCase(repo, embedder)
	uc.Page = NewPageUseCase(repo, embedder, o.notionService)
	uc.Chat = NewChatUseCase(repo, llmClient, registry, uc.Memory, uc.Page, extractor, o.webSearch, uc.Broker)

	return uc, nil
}
