package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/docufy-dev/docufy/pkg/utils/logging"
)

// Candidate is the result of fact extraction from one user message.
// A zero Candidate means "no durable fact"; the caller stores nothing.
type Candidate struct {
	Fact       string  `json:"fact"`
	Confidence float64 `json:"confidence"`
	Allowed    bool    `json:"allowed"`
}

// None reports whether the candidate carries no fact
func (c Candidate) None() bool {
	return c.Fact == ""
}

// Service extracts durable personalization facts from chat messages
type Service struct {
	llmClient gollem.LLMClient
}

// New creates a new fact extraction service with the provided LLM client
func New(llmClient gollem.LLMClient) (*Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Service{llmClient: llmClient}, nil
}

// systemPrompt instructs the model to emit strict JSON with exactly the
// three candidate keys. The denial categories are hard-coded: the model
// must never propose secrets, credentials, payment data, government
// identifiers, or health data as memory facts.
const systemPrompt = `You are a memory-fact extraction assistant for a document workspace.

Given ONE user chat message, decide whether it contains AT MOST ONE durable,
personalization-relevant fact that the user stated explicitly about themselves
or their preferences (e.g. "Prefers concise answers", "Works in the Berlin office").

Rules:
1. Output strict JSON with exactly these keys and nothing else:
   {"fact": string or null, "confidence": number between 0 and 1, "allowed": boolean}
2. Return {"fact": null, "confidence": 0, "allowed": false} when the message
   contains no durable, explicitly stated, personalization-relevant fact.
3. Never extract or rephrase: passwords, API keys, tokens or other secrets;
   payment card or bank data; government-issued identifiers; health or medical
   information. If the only candidate falls into these categories, return
   {"fact": null, "confidence": 0, "allowed": false}.
4. The fact must be a single short sentence of at most 180 characters, written
   in third person, stating only what the user said. Do not infer or assume.
5. "allowed" is true only when the fact is safe to store under rule 3.`

// Extract asks the LLM for at most one durable fact candidate from the
// given user message. It never returns an error: provider failures,
// malformed output and non-conforming shapes all collapse to the zero
// Candidate: nothing is stored without a clean signal.
func (s *Service) Extract(ctx context.Context, messageText string) Candidate {
	logger := logging.From(ctx)

	messageText = strings.TrimSpace(messageText)
	if messageText == "" {
		// Short-circuit without a model call
		return Candidate{}
	}

	schema := &gollem.Parameter{
		Title:       "MemoryFactCandidate",
		Description: "At most one durable user-stated fact extracted from a chat message",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"fact": {
				Type:        gollem.TypeString,
				Description: "The durable fact, or null when none exists",
			},
			"confidence": {
				Type:        gollem.TypeNumber,
				Description: "Extraction confidence between 0 and 1",
				Required:    true,
			},
			"allowed": {
				Type:        gollem.TypeBoolean,
				Description: "Whether the fact is safe to store (no secrets, payment, government ID, or health data)",
				Required:    true,
			},
		},
	}

	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(schema),
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		logger.Debug("fact extraction session failed, treating as no candidate", "error", err.Error())
		return Candidate{}
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(messageText))
	if err != nil {
		logger.Debug("fact extraction call failed, treating as no candidate", "error", err.Error())
		return Candidate{}
	}
	if len(resp.Texts) == 0 {
		return Candidate{}
	}

	return parseCandidate(resp.Texts[0])
}

// parseCandidate parses the model output. Non-JSON output, wrong types
// and a missing or empty fact all produce the zero Candidate.
func parseCandidate(raw string) Candidate {
	var parsed struct {
		Fact       *string  `json:"fact"`
		Confidence *float64 `json:"confidence"`
		Allowed    *bool    `json:"allowed"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Candidate{}
	}

	if parsed.Fact == nil {
		return Candidate{}
	}
	fact := strings.TrimSpace(*parsed.Fact)
	if fact == "" {
		return Candidate{}
	}

	c := Candidate{Fact: fact}
	if parsed.Confidence != nil && *parsed.Confidence >= 0 && *parsed.Confidence <= 1 {
		c.Confidence = *parsed.Confidence
	}
	if parsed.Allowed != nil {
		c.Allowed = *parsed.Allowed
	}
	return c
}
