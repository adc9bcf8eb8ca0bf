// Package workflow decides which agent handles a request next. Stages are
// stepped by the caller; nothing here runs an agent.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/core/profile"
)

type Agent string

const (
	AgentLead      Agent = "lead"
	AgentProfiling Agent = "profiling"
	AgentCleaning  Agent = "cleaning"
	AgentMapping   Agent = "mapping"
	AgentMigration Agent = "migration"
	AgentReport    Agent = "report"
	AgentUnknown   Agent = "unknown"
)

type Stage struct {
	Agent  Agent  `json:"agent"`
	Detail string `json:"detail"`
}

// Overview is a first look at a data source.
type Overview struct {
	Rows          int                      `json:"rows"`
	Columns       []string                 `json:"columns"`
	Sample        []map[string]model.Value `json:"sample"`
	MissingValues map[string]int           `json:"missing_values"`
}

type Routing struct {
	Agent           Agent                `json:"agent"`
	Then            Agent                `json:"then,omitempty"`
	Routing         string               `json:"routing"`
	Questions       []string             `json:"questions"`
	InitialAnalysis *Overview            `json:"initial_analysis,omitempty"`
	NextSteps       []string             `json:"next_steps"`
	Workflow        []Stage              `json:"workflow"`
	CleaningPlan    []model.TaskEnvelope `json:"cleaning_plan,omitempty"`
}

var (
	dedupeWords      = []string{"duplicate", "duplication", "same", "similar"}
	cleanWords       = []string{"deduplicate", "clean", "duplicate", "duplication", "same", "similar"}
	profileWords     = []string{"profile", "analyze", "examine"}
	migrateWords     = []string{"migrate", "export", "load"}
	reportWords      = []string{"visualize", "chart", "graph", "report"}
	leadWords        = []string{"orchestrate", "manage", "coordinate", "start", "begin"}
	mappingQuestions = []string{
		"What are your target field mappings?",
		"Are there any field transformations needed?",
		"Do you have a target schema to map to?",
	}
	mappingSteps = []string{"Define field mappings", "Create transformation rules", "Validate mappings"}
)

// Route picks the next agent. A finished profile decides between
// cleaning and mapping; otherwise a data source with a duplicate intent
// goes to profiling, any other data source to the lead, and a bare
// request is routed by its wording.
func Route(request string, source *model.Dataset, prof *profile.Result) *Routing {
	intent := strings.ToLower(request)
	if prof != nil {
		return afterProfile(prof)
	}

	if source != nil {
		overview := Overview{
			Rows:          source.Len(),
			Columns:       source.ColumnNames(),
			Sample:        source.Records(firstRows(source, 3)),
			MissingValues: map[string]int{},
		}
		for _, c := range overview.Columns {
			n := 0
			for _, v := range source.ColumnValues(c) {
				if v.IsNull() {
					n++
				}
			}
			overview.MissingValues[c] = n
		}

		if containsAny(intent, dedupeWords) {
			return &Routing{
				Agent:           AgentProfiling,
				Then:            AgentCleaning,
				Routing:         "Routed to the profiling agent first, then the cleaning agent",
				InitialAnalysis: &overview,
				Questions: []string{
					"Which columns should be used to identify duplicates?",
					"What similarity threshold would you like to use (default: 90%)?",
					"Would you like to automatically merge duplicates or review them first?",
				},
				NextSteps: []string{
					"Profile data to identify potential duplicates",
					"Generate similarity report for duplicate records",
					"Prepare merge suggestions for review",
				},
				Workflow: []Stage{
					{AgentProfiling, "Data profiling and duplicate detection"},
					{AgentCleaning, "Deduplication and cleaning"},
				},
			}
		}
		return &Routing{
			Agent:           AgentLead,
			Routing:         "Routed to the lead agent",
			InitialAnalysis: &overview,
			Questions: []string{
				"What is the overall goal for this data set?",
				"Are there any specific data quality concerns?",
				"What is the timeline for this project?",
			},
			NextSteps: []string{
				"Initialize project tracking",
				"Perform initial data profiling",
				"Determine required data transformations",
			},
			Workflow: []Stage{
				{AgentLead, "Project initialization"},
				{AgentProfiling, "Data profiling"},
				{AgentCleaning, "Data cleaning (if needed)"},
				{AgentMapping, "Field mapping (if needed)"},
				{AgentMigration, "Data migration (if needed)"},
				{AgentReport, "Results reporting"},
			},
		}
	}

	r := &Routing{Workflow: []Stage{}}
	switch {
	case containsAny(intent, profileWords):
		r.Agent = AgentProfiling
		r.Routing = "Routed to the profiling agent"
		r.Questions = []string{
			"Which specific columns would you like to profile?",
			"Are you interested in data quality metrics or just data types?",
			"Would you like to identify potential duplicate fields?",
		}
		r.NextSteps = []string{
			"Run full profile",
			"Check for missing values",
			"Analyze data distributions",
			"Identify inconsistent values",
			"Detect potential duplicates",
		}
	case containsAny(intent, cleanWords):
		r.Agent, r.Then = AgentProfiling, AgentCleaning
		r.Routing = "Routed to the profiling agent first, then the cleaning agent"
		r.Questions = []string{
			"Which columns should be analyzed for potential duplicates?",
			"What similarity threshold would you like to use (default: 90%)?",
			"Would you like to automatically merge duplicates or review them first?",
		}
		r.NextSteps = []string{
			"Profile data to identify inconsistencies",
			"Identify potential duplicates",
			"Generate similarity report",
			"Prepare merge suggestions",
		}
	case strings.Contains(intent, "map"):
		r.Agent = AgentMapping
		r.Routing = "Routed to the mapping agent"
		r.Questions = mappingQuestions
		r.NextSteps = mappingSteps
	case containsAny(intent, migrateWords):
		r.Agent = AgentMigration
		r.Routing = "Routed to the migration agent"
		r.Questions = []string{
			"What is the target system or format?",
			"Do you need incremental or full migration?",
			"Are there any special handling requirements for the migration?",
		}
		r.NextSteps = []string{"Configure target connection", "Set up migration rules", "Schedule migration job"}
	case containsAny(intent, reportWords):
		r.Agent = AgentReport
		r.Routing = "Routed to reporting"
		r.Questions = []string{
			"Which metrics are most important to report?",
			"Do you need a summary or a detailed report?",
		}
		r.NextSteps = []string{"Summarize data quality results", "Prepare detailed reports"}
	case containsAny(intent, leadWords):
		r.Agent = AgentLead
		r.Routing = "Routed to the lead agent"
		r.Questions = []string{
			"What is the overall project goal?",
			"Which agents need to be coordinated?",
			"What is the current status of the project?",
		}
		r.NextSteps = []string{"Create project plan", "Monitor agent activities", "Generate status reports"}
	default:
		r.Agent = AgentUnknown
		r.Routing = "Unclear request, more information needed."
		r.Questions = []string{
			"Could you clarify if you need to profile, clean, map, or migrate data?",
			"What is the main goal of your data project?",
			"What data source would you like to work with?",
		}
		r.NextSteps = []string{"Clarify request", "Connect to data source", "Determine appropriate agent"}
	}
	return r
}

func afterProfile(prof *profile.Result) *Routing {
	var dupIssues, qualityIssues []string
	if d := prof.Duplicates; d != nil {
		if d.Exact != nil && d.Exact.Summary.Groups > 0 {
			dupIssues = append(dupIssues, fmt.Sprintf("%d exact duplicates in %d groups", d.Exact.Summary.Records, d.Exact.Summary.Groups))
		}
		if d.Fuzzy != nil && len(d.Fuzzy.Groups) > 0 {
			dupIssues = append(dupIssues, fmt.Sprintf("%d groups of similar records", len(d.Fuzzy.Groups)))
		}
	}
	for _, col := range prof.Columns {
		st := prof.ColumnStats[col]
		if st.Nulls > 0 {
			qualityIssues = append(qualityIssues, "missing values in "+col)
		}
		if st.InconsistentCapitalization {
			qualityIssues = append(qualityIssues, "inconsistent capitalization in "+col)
		}
	}

	if len(dupIssues) == 0 && len(qualityIssues) == 0 {
		return &Routing{
			Agent:     AgentMapping,
			Routing:   "Routed to the mapping agent",
			Questions: mappingQuestions,
			NextSteps: mappingSteps,
			Workflow: []Stage{
				{AgentProfiling, "Completed"},
				{AgentCleaning, "Skipped (no issues)"},
				{AgentMapping, "In progress"},
				{AgentMigration, "Pending"},
				{AgentReport, "Pending"},
			},
		}
	}

	r := &Routing{
		Agent:        AgentCleaning,
		Routing:      "Routed to the cleaning agent",
		CleaningPlan: prof.CleaningPlan,
		Questions: []string{
			"Would you like to automatically clean all issues or review them first?",
			"Are there specific columns you want to prioritize for cleaning?",
			"How should missing values be handled (remove, impute with mean/median/mode)?",
		},
		Workflow: []Stage{
			{AgentProfiling, "Completed"},
			{AgentCleaning, "In progress"},
			{AgentMapping, "Next"},
			{AgentMigration, "Pending"},
			{AgentReport, "Pending"},
		},
	}
	if len(dupIssues) > 0 {
		r.NextSteps = append(r.NextSteps, "Deduplicate records: "+strings.Join(dupIssues, ", "))
	}
	if len(qualityIssues) > 0 {
		text := strings.Join(qualityIssues[:min(3, len(qualityIssues))], ", ")
		if len(qualityIssues) > 3 {
			text += "..."
		}
		r.NextSteps = append(r.NextSteps, "Clean data quality issues: "+text)
	}
	return r
}

// LeadStatus is the lead agent's answer about one task.
type LeadStatus struct {
	Task                string    `json:"task"`
	Status              string    `json:"status"`
	Timestamp           time.Time `json:"timestamp"`
	NextAction          string    `json:"next_action"`
	OrchestrationStatus string    `json:"orchestration_status"`
}

// Lead maps a task status to the next orchestration action.
func Lead(task, status string, now time.Time) LeadStatus {
	if status == "" {
		status = "pending"
	}
	var next string
	switch status {
	case "pending":
		next = "initiate"
	case "in_progress":
		next = "monitor"
	case "completed":
		next = "finalize"
	case "failed":
		next = "escalate"
	default:
		next = "review"
	}
	return LeadStatus{
		Task:                task,
		Status:              status,
		Timestamp:           now,
		NextAction:          next,
		OrchestrationStatus: fmt.Sprintf("Task '%s' is %s", task, status),
	}
}

func firstRows(ds *model.Dataset, n int) []int {
	rows := make([]int, min(n, ds.Len()))
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
