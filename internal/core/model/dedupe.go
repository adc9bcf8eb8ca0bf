package model

// DuplicateGroup is a set of rows believed to be the same entity. Rows
// are indices into the dataset the group was computed on, ascending for
// exact groups and in recruitment order (anchor first) for fuzzy groups.
type DuplicateGroup struct {
	Rows     []int   `json:"rows"`
	Cohesion float64 `json:"cohesion"`
}

func (g DuplicateGroup) Size() int { return len(g.Rows) }

// Keeper is the member with the lowest original row index.
func (g DuplicateGroup) Keeper() int {
	keep := g.Rows[0]
	for _, r := range g.Rows[1:] {
		if r < keep {
			keep = r
		}
	}
	return keep
}

// Disposition is the outcome assigned to a fuzzy group.
type Disposition string

const (
	AutoMerge       Disposition = "auto_merge"
	ReviewRequired  Disposition = "review_required"
	HumanEscalation Disposition = "human_escalation"
)

// CrossMatch is the best counterpart of a row of A within B.
type CrossMatch struct {
	Row        int     `json:"row"`
	Match      int     `json:"match"`
	Similarity float64 `json:"similarity"`
}
