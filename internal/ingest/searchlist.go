package ingest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// LoadSearchList fetches the job's search-list payload. The reference is
// either an object-storage HTTP(S) URL or a local file path.
func LoadSearchList(ctx context.Context, client *http.Client, ref string) (*model.SearchList, error) {
	if ref == "" {
		return nil, eris.New("ingest: search list reference is empty")
	}

	var raw []byte
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: create search list request")
		}
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: fetch search list")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("ingest: fetch search list: unexpected status %d", resp.StatusCode)
		}
		raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read search list")
		}
	} else {
		var err error
		raw, err = os.ReadFile(ref)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read search list file %s", ref)
		}
	}

	var list model.SearchList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, eris.Wrap(err, "ingest: parse search list")
	}
	if len(list.Searches) == 0 {
		return nil, eris.New("ingest: search list contains no searches")
	}
	for i, s := range list.Searches {
		if s.TextQuery == "" {
			return nil, eris.Errorf("ingest: search %d has no text query", i)
		}
	}
	return &list, nil
}
