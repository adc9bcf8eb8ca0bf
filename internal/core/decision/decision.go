// Package decision sorts duplicate groups into what can be merged
// automatically and what needs a person to look at it.
package decision

import (
	"github.com/agenthands/steward/internal/core/model"
)

const DefaultReviewThreshold = 85

// Policy holds the knobs of the classifier.
type Policy struct {
	ReviewThreshold float64
	AutoApply       bool
}

// Classify assigns a disposition from the group's cohesion alone.
func (p Policy) Classify(g model.DuplicateGroup) model.Disposition {
	switch {
	case g.Cohesion >= p.ReviewThreshold && p.AutoApply:
		return model.AutoMerge
	case g.Cohesion >= p.ReviewThreshold:
		return model.ReviewRequired
	default:
		return model.HumanEscalation
	}
}

// Decided pairs a group with its disposition.
type Decided struct {
	Group       model.DuplicateGroup `json:"group"`
	Disposition model.Disposition    `json:"disposition"`
}

// Triage is the outcome of classifying a batch of groups.
type Triage struct {
	AutoMerge       []Decided `json:"auto_merge"`
	ReviewRequired  []Decided `json:"review_required"`
	HumanEscalation []Decided `json:"human_escalation"`
}

// Apply classifies every group, keeping input order within each bucket.
func (p Policy) Apply(groups []model.DuplicateGroup) Triage {
	var t Triage
	for _, g := range groups {
		d := Decided{Group: g, Disposition: p.Classify(g)}
		switch d.Disposition {
		case model.AutoMerge:
			t.AutoMerge = append(t.AutoMerge, d)
		case model.ReviewRequired:
			t.ReviewRequired = append(t.ReviewRequired, d)
		case model.HumanEscalation:
			t.HumanEscalation = append(t.HumanEscalation, d)
		}
	}
	return t
}

// Discard lists the rows removed when merging groups: every member
// except the one with the lowest original row index.
func Discard(groups []model.DuplicateGroup) map[int]bool {
	drop := make(map[int]bool)
	for _, g := range groups {
		keep := g.Keeper()
		for _, r := range g.Rows {
			if r != keep {
				drop[r] = true
			}
		}
	}
	return drop
}

// Merged returns ds without the discarded members of the auto-merge
// bucket, and how many rows were removed.
func (t Triage) Merged(ds *model.Dataset) (*model.Dataset, int) {
	groups := make([]model.DuplicateGroup, len(t.AutoMerge))
	for i, d := range t.AutoMerge {
		groups[i] = d.Group
	}
	drop := Discard(groups)
	return ds.Without(drop), len(drop)
}
