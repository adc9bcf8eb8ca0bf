package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/agenthands/steward/internal/core/model"
)

// Classifier assigns a disposition to a duplicate group.
type Classifier interface {
	Classify(g model.DuplicateGroup) model.Disposition
}

// Edge is one exported DUPLICATE_OF relation.
type Edge struct {
	Row         int               `json:"row"`
	Keeper      int               `json:"keeper"`
	Score       float64           `json:"score"`
	Disposition model.Disposition `json:"disposition"`
}

// ExportGroups replaces the graph of dataset with one Record node per
// grouped row and a DUPLICATE_OF edge from every other member to the
// group's keeper. values, when set, renders a row's cells onto its node.
func ExportGroups(ctx context.Context, d GraphDriver, dataset string, groups []model.DuplicateGroup, c Classifier, values func(row int) map[string]any) (int, error) {
	if _, err := d.ExecuteQuery(ctx, ClearDatasetQuery, map[string]any{"dataset": dataset}); err != nil {
		return 0, fmt.Errorf("failed to clear dataset %q: %w", dataset, err)
	}

	now := time.Now().UTC()
	edges := 0
	for _, g := range groups {
		if g.Size() < 2 {
			continue
		}
		keeper := g.Keeper()
		disposition := c.Classify(g)
		for _, row := range g.Rows {
			params := map[string]any{"dataset": dataset, "row": int64(row), "values": map[string]any{}}
			if values != nil {
				params["values"] = values(row)
			}
			if _, err := d.ExecuteQuery(ctx, SaveRecordQuery, params); err != nil {
				return edges, fmt.Errorf("failed to save record %d: %w", row, err)
			}
		}
		for _, row := range g.Rows {
			if row == keeper {
				continue
			}
			_, err := d.ExecuteQuery(ctx, SaveDuplicateEdgeQuery, map[string]any{
				"dataset":     dataset,
				"row":         int64(row),
				"keeper":      int64(keeper),
				"score":       g.Cohesion,
				"disposition": string(disposition),
				"exported_at": now,
			})
			if err != nil {
				return edges, fmt.Errorf("failed to link record %d to %d: %w", row, keeper, err)
			}
			edges++
		}
	}
	return edges, nil
}

// Edges reads back the DUPLICATE_OF edges of dataset.
func Edges(ctx context.Context, d GraphDriver, dataset string) ([]Edge, error) {
	res, err := d.ExecuteQuery(ctx, GetDuplicateEdgesQuery, map[string]any{"dataset": dataset})
	if err != nil {
		return nil, err
	}
	out := make([]Edge, 0, len(res.Records))
	for _, rec := range res.Records {
		row, _ := rec.Get("row")
		keeper, _ := rec.Get("keeper")
		score, _ := rec.Get("score")
		disposition, _ := rec.Get("disposition")
		e := Edge{}
		if v, ok := row.(int64); ok {
			e.Row = int(v)
		}
		if v, ok := keeper.(int64); ok {
			e.Keeper = int(v)
		}
		if v, ok := score.(float64); ok {
			e.Score = v
		}
		if v, ok := disposition.(string); ok {
			e.Disposition = model.Disposition(v)
		}
		out = append(out, e)
	}
	return out, nil
}
