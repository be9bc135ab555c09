package fetcher

import (
	"strings"

	"github.com/sells-group/emission-rollup/internal/catalog"
)

// ColumnMap names the export header for each record field. Matching is
// case-insensitive and NFC-normalized. An empty name means the field is not
// exported.
type ColumnMap struct {
	RecordID    string `mapstructure:"record_id" yaml:"record_id"`
	FamilyID    string `mapstructure:"family_id" yaml:"family_id"`
	RequesterID string `mapstructure:"requester_id" yaml:"requester_id"`
	PipelineID  string `mapstructure:"pipeline_id" yaml:"pipeline_id"`
	StageCode   string `mapstructure:"stage_code" yaml:"stage_code"`
	CreatedAt   string `mapstructure:"created_at" yaml:"created_at"`
	Assignee    string `mapstructure:"assignee" yaml:"assignee"`
	Desk        string `mapstructure:"desk" yaml:"desk"`
}

// DefaultColumns matches the CRM's smart-process card export.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		RecordID:    "ID",
		FamilyID:    "FAMILY_ID",
		RequesterID: "REQUESTER_ID",
		PipelineID:  "CATEGORY_ID",
		StageCode:   "STAGE_ID",
		CreatedAt:   "CREATED_TIME",
		Assignee:    "ASSIGNED_BY",
		Desk:        "DESK",
	}
}

// withDefaults fills unset names from DefaultColumns.
func (m ColumnMap) withDefaults() ColumnMap {
	d := DefaultColumns()
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return ColumnMap{
		RecordID:    pick(m.RecordID, d.RecordID),
		FamilyID:    pick(m.FamilyID, d.FamilyID),
		RequesterID: pick(m.RequesterID, d.RequesterID),
		PipelineID:  pick(m.PipelineID, d.PipelineID),
		StageCode:   pick(m.StageCode, d.StageCode),
		CreatedAt:   pick(m.CreatedAt, d.CreatedAt),
		Assignee:    pick(m.Assignee, d.Assignee),
		Desk:        pick(m.Desk, d.Desk),
	}
}

// columnIndex holds header positions; -1 marks an absent column.
type columnIndex struct {
	recordID, familyID, requesterID, pipelineID int
	stageCode, createdAt, assignee, desk        int
}

func headerKey(s string) string {
	return strings.ToUpper(catalog.Normalize(s))
}

func (m ColumnMap) index(header []string) columnIndex {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		k := headerKey(h)
		if _, dup := pos[k]; !dup {
			pos[k] = i
		}
	}
	find := func(name string) int {
		if i, ok := pos[headerKey(name)]; ok {
			return i
		}
		return -1
	}
	return columnIndex{
		recordID:    find(m.RecordID),
		familyID:    find(m.FamilyID),
		requesterID: find(m.RequesterID),
		pipelineID:  find(m.PipelineID),
		stageCode:   find(m.StageCode),
		createdAt:   find(m.CreatedAt),
		assignee:    find(m.Assignee),
		desk:        find(m.Desk),
	}
}
