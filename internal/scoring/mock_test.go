package scoring

import (
	"context"
	"sync"

	"github.com/sells-group/leadgen-pipeline/internal/model"
	"github.com/sells-group/leadgen-pipeline/pkg/anthropic"
)

// mockLLM answers stage 1 and stage 2 calls by model name.
type mockLLM struct {
	mu          sync.Mutex
	factsText   string
	verdictText string
	factsErr    error
	verdictErr  error

	factsCalls   int
	verdictCalls int
	lastFacts    string
	lastVerdict  string
}

func (m *mockLLM) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.Model == testExtractModel {
		m.factsCalls++
		m.lastFacts = req.Messages[0].Content
		if m.factsErr != nil {
			return nil, m.factsErr
		}
		return textResponse(m.factsText), nil
	}
	m.verdictCalls++
	m.lastVerdict = req.Messages[0].Content
	if m.verdictErr != nil {
		return nil, m.verdictErr
	}
	return textResponse(m.verdictText), nil
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
	}
}

// mockScoringStore backs the engine with in-memory extraction data.
type mockScoringStore struct {
	mu        sync.Mutex
	data      map[int64]*model.ExtractedData
	pages     map[string][]model.ScrapedPage
	updated   map[int64]*model.Lead
	updateErr error
}

func newMockScoringStore() *mockScoringStore {
	return &mockScoringStore{
		data:    map[int64]*model.ExtractedData{},
		pages:   map[string][]model.ScrapedPage{},
		updated: map[int64]*model.Lead{},
	}
}

func (m *mockScoringStore) GetLatestExtractedData(_ context.Context, leadID int64) (*model.ExtractedData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[leadID], nil
}

func (m *mockScoringStore) ListScrapedPages(_ context.Context, scrapeRunID string) ([]model.ScrapedPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pages[scrapeRunID], nil
}

func (m *mockScoringStore) UpdateLeadScores(_ context.Context, lead *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	clone := *lead
	m.updated[lead.ID] = &clone
	return nil
}

// staticMarket returns a fixed context paragraph.
type staticMarket struct {
	text string
	err  error
}

func (s *staticMarket) ContextForLead(_ context.Context, _ *model.Lead) (string, error) {
	return s.text, s.err
}
