package ingest

import (
	"context"
	"time"

	"github.com/sells-group/leadgen-pipeline/internal/model"
	"github.com/sells-group/leadgen-pipeline/pkg/google"
)

// mockStore implements Store for testing.
type mockStore struct {
	jobStatuses     map[string]model.RunStatus
	runStatuses     map[string]model.RunStatus
	counterUpdates  []model.CampaignRun
	finishedRuns    []model.CampaignRun
	cachedSearches  map[string]bool // "text|type" → exists
	searchQueries   []model.SearchQuery
	nextQueryID     int64
	insertedLeads   []model.Lead
	existingPlaces  map[string]bool
	insertLeadErr   error
	franchises      map[string]*model.Franchise
	nameCounts      map[string]int
	linkedFranchise []int64
}

func newMockStore() *mockStore {
	return &mockStore{
		jobStatuses:    make(map[string]model.RunStatus),
		runStatuses:    make(map[string]model.RunStatus),
		cachedSearches: make(map[string]bool),
		existingPlaces: make(map[string]bool),
		franchises:     make(map[string]*model.Franchise),
		nameCounts:     make(map[string]int),
	}
}

func (m *mockStore) UpdateJobStatus(_ context.Context, jobID string, status model.RunStatus, _ string) error {
	m.jobStatuses[jobID] = status
	return nil
}

func (m *mockStore) UpdateCampaignRunStatus(_ context.Context, runID string, status model.RunStatus, _ string) error {
	m.runStatuses[runID] = status
	return nil
}

func (m *mockStore) UpdateCampaignRunCounters(_ context.Context, run *model.CampaignRun) error {
	m.counterUpdates = append(m.counterUpdates, *run)
	return nil
}

func (m *mockStore) FinishCampaignRun(_ context.Context, run *model.CampaignRun) error {
	m.runStatuses[run.ID] = run.Status
	m.finishedRuns = append(m.finishedRuns, *run)
	return nil
}

func (m *mockStore) RecentSearchExists(_ context.Context, textQuery, includedType string, _ time.Duration) (bool, error) {
	return m.cachedSearches[textQuery+"|"+includedType], nil
}

func (m *mockStore) CreateSearchQuery(_ context.Context, q *model.SearchQuery) error {
	m.nextQueryID++
	q.ID = m.nextQueryID
	m.searchQueries = append(m.searchQueries, *q)
	return nil
}

func (m *mockStore) SetSearchQueryResultCount(_ context.Context, id int64, count int) error {
	for i := range m.searchQueries {
		if m.searchQueries[i].ID == id {
			m.searchQueries[i].ResultCount = count
		}
	}
	return nil
}

func (m *mockStore) InsertLead(_ context.Context, lead *model.Lead) (bool, error) {
	if m.insertLeadErr != nil {
		return false, m.insertLeadErr
	}
	if m.existingPlaces[lead.PlaceID] {
		return false, nil
	}
	m.existingPlaces[lead.PlaceID] = true
	lead.ID = int64(len(m.insertedLeads) + 1)
	m.insertedLeads = append(m.insertedLeads, *lead)
	m.nameCounts[lead.NormalizedName]++
	return true, nil
}

func (m *mockStore) GetFranchise(_ context.Context, normalizedName string) (*model.Franchise, error) {
	return m.franchises[normalizedName], nil
}

func (m *mockStore) CreateFranchise(_ context.Context, normalizedName, displayName string) (*model.Franchise, error) {
	f := &model.Franchise{
		ID:             int64(len(m.franchises) + 1),
		NormalizedName: normalizedName,
		DisplayName:    displayName,
	}
	m.franchises[normalizedName] = f
	return f, nil
}

func (m *mockStore) CountLeadsByName(_ context.Context, normalizedName string) (int, error) {
	return m.nameCounts[normalizedName], nil
}

func (m *mockStore) LinkLeadsToFranchise(_ context.Context, franchiseID int64, _ string) (int, error) {
	m.linkedFranchise = append(m.linkedFranchise, franchiseID)
	return 2, nil
}

// mockGoogleClient implements google.Client for testing. Responses are
// keyed by "query|pageToken" so pagination can be scripted.
type mockGoogleClient struct {
	responses map[string]*google.TextSearchResponse
	errs      map[string]error
	callCount int
	requests  []google.TextSearchRequest
}

func (m *mockGoogleClient) TextSearch(_ context.Context, req google.TextSearchRequest) (*google.TextSearchResponse, error) {
	m.callCount++
	m.requests = append(m.requests, req)
	key := req.TextQuery + "|" + req.PageToken
	if err, ok := m.errs[key]; ok {
		return nil, err
	}
	if resp, ok := m.responses[key]; ok {
		return resp, nil
	}
	return &google.TextSearchResponse{}, nil
}
