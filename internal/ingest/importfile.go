package ingest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// ParseSearchFile reads search phrases from a local XLSX or YAML file and
// returns them as a search list. XLSX files use one phrase per row with an
// optional place type in the second column; YAML files hold a list of
// {text_query, included_type} entries.
func ParseSearchFile(path string) (*model.SearchList, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return parseSearchXLSX(path)
	case ".yaml", ".yml":
		return parseSearchYAML(path)
	default:
		return nil, eris.Errorf("ingest: unsupported search file extension %q", filepath.Ext(path))
	}
}

func parseSearchXLSX(path string) (*model.SearchList, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open search xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: search xlsx has no sheets")
	}

	list := &model.SearchList{}
	for i, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}

		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		// Skip a header row if the first cell looks like a column label.
		if i == 0 && (strings.EqualFold(cells[0], "search") || strings.EqualFold(cells[0], "text_query")) {
			continue
		}

		spec := model.SearchSpec{TextQuery: cells[0]}
		if len(cells) > 1 {
			spec.IncludedType = cells[1]
		}
		list.Searches = append(list.Searches, spec)
	}

	if len(list.Searches) == 0 {
		return nil, eris.New("ingest: search xlsx contains no phrases")
	}
	return list, nil
}

func parseSearchYAML(path string) (*model.SearchList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read search yaml")
	}

	var doc struct {
		Searches []model.SearchSpec `yaml:"searches"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "ingest: parse search yaml")
	}

	// Also accept a bare top-level list of entries.
	if len(doc.Searches) == 0 {
		var bare []model.SearchSpec
		if err := yaml.Unmarshal(data, &bare); err == nil {
			doc.Searches = bare
		}
	}

	out := &model.SearchList{}
	for _, s := range doc.Searches {
		if strings.TrimSpace(s.TextQuery) == "" {
			continue
		}
		out.Searches = append(out.Searches, s)
	}
	if len(out.Searches) == 0 {
		return nil, eris.New("ingest: search yaml contains no phrases")
	}
	return out, nil
}
