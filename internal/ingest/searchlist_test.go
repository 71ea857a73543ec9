package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSearchList_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searches.json")
	payload := `{"searches": ["plumbers in Denver, CO", {"textQuery": "hvac in Denver, CO", "includedType": "hvac_contractor"}]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	list, err := LoadSearchList(context.Background(), nil, path)
	require.NoError(t, err)
	require.Len(t, list.Searches, 2)
	assert.Equal(t, "plumbers in Denver, CO", list.Searches[0].TextQuery)
	assert.Empty(t, list.Searches[0].IncludedType)
	assert.Equal(t, "hvac in Denver, CO", list.Searches[1].TextQuery)
	assert.Equal(t, "hvac_contractor", list.Searches[1].IncludedType)
}

func TestLoadSearchList_FromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"searches": ["roofers in Tulsa, OK"]}`))
	}))
	defer srv.Close()

	list, err := LoadSearchList(context.Background(), srv.Client(), srv.URL+"/searches.json")
	require.NoError(t, err)
	require.Len(t, list.Searches, 1)
	assert.Equal(t, "roofers in Tulsa, OK", list.Searches[0].TextQuery)
}

func TestLoadSearchList_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := LoadSearchList(context.Background(), srv.Client(), srv.URL+"/gone.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLoadSearchList_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searches.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"searches": []}`), 0o644))

	_, err := LoadSearchList(context.Background(), nil, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no searches")
}

func TestLoadSearchList_MissingTextQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searches.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"searches": [{"includedType": "plumber"}]}`), 0o644))

	_, err := LoadSearchList(context.Background(), nil, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text query")
}

func TestLoadSearchList_EmptyRef(t *testing.T) {
	_, err := LoadSearchList(context.Background(), nil, "")
	require.Error(t, err)
}
