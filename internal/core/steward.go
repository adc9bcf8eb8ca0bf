package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/steward/internal/config"
	"github.com/agenthands/steward/internal/core/cleaning"
	"github.com/agenthands/steward/internal/core/decision"
	"github.com/agenthands/steward/internal/core/insight"
	"github.com/agenthands/steward/internal/core/mapping"
	"github.com/agenthands/steward/internal/core/migrate"
	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/core/profile"
	"github.com/agenthands/steward/internal/core/workflow"
	"github.com/agenthands/steward/internal/driver"
	"github.com/agenthands/steward/internal/logging"
	"github.com/agenthands/steward/internal/tabular"
)

// ErrInvalidRequest marks requests rejected before any data is read.
var ErrInvalidRequest = errors.New("invalid request")

// Recorder keeps a log of tool runs.
type Recorder interface {
	Record(ctx context.Context, tool string, input, result any) (string, error)
}

// Steward runs the agents against files on disk. The annotator, graph
// and history are optional; a nil one turns its feature off.
type Steward struct {
	cfg       *config.Config
	logger    *zap.Logger
	annotator *insight.Annotator
	graph     driver.GraphDriver
	history   Recorder
	now       func() time.Time
}

type Option func(*Steward)

func WithLogger(l *zap.Logger) Option { return func(s *Steward) { s.logger = l } }

func WithAnnotator(a *insight.Annotator) Option { return func(s *Steward) { s.annotator = a } }

func WithGraph(d driver.GraphDriver) Option { return func(s *Steward) { s.graph = d } }

func WithHistory(r Recorder) Option { return func(s *Steward) { s.history = r } }

func WithClock(now func() time.Time) Option { return func(s *Steward) { s.now = now } }

func NewSteward(cfg *config.Config, opts ...Option) *Steward {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Steward{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

type ProfileRequest struct {
	FilePath            string   `json:"file_path"`
	FocusColumns        []string `json:"focus_columns,omitempty"`
	AnalyzeDuplicates   *bool    `json:"analyze_duplicates,omitempty"`
	SimilarityThreshold *int     `json:"similarity_threshold,omitempty"`
	AIAnalysis          bool     `json:"ai_analysis,omitempty"`
	ExportGraph         bool     `json:"export_graph,omitempty"`
}

type ProfileResponse struct {
	*profile.Result
	AIInsights   *insight.Insight `json:"ai_insights,omitempty"`
	GraphEdges   int              `json:"graph_edges_exported,omitempty"`
	GraphDataset string           `json:"graph_dataset,omitempty"`
}

// ProfileCSV profiles a file. Annotation and graph export failures are
// logged and leave the profile intact.
func (s *Steward) ProfileCSV(ctx context.Context, req ProfileRequest) (resp *ProfileResponse, err error) {
	defer track(ctx, s, ToolProfileCSV, req.FilePath, req, &resp, &err)()

	opts := s.profileOptions()
	opts.FocusColumns = req.FocusColumns
	if req.AnalyzeDuplicates != nil {
		opts.AnalyzeDuplicates = *req.AnalyzeDuplicates
	}
	if t := req.SimilarityThreshold; t != nil {
		if *t < 0 || *t > 100 {
			return nil, fmt.Errorf("%w: similarity_threshold must be between 0 and 100 (got %d)", ErrInvalidRequest, *t)
		}
		opts.SimilarityThreshold = *t
	}

	ds, err := tabular.Load(req.FilePath, 0)
	if err != nil {
		return nil, err
	}
	res, err := profile.Run(ds, opts)
	if err != nil {
		return nil, err
	}
	res.FileInfo.Path = req.FilePath
	resp = &ProfileResponse{Result: res}

	if req.AIAnalysis {
		ins, err := s.annotator.Annotate(ctx, ds, res)
		if err != nil {
			s.logger.Warn("ai analysis unavailable", zap.String("path", req.FilePath), zap.Error(err))
		}
		resp.AIInsights = ins
	}
	if req.ExportGraph {
		resp.GraphDataset = filepath.Base(req.FilePath)
		resp.GraphEdges = s.exportGroups(ctx, resp.GraphDataset, ds, res.Duplicates)
	}
	return resp, nil
}

func (s *Steward) profileOptions() profile.Options {
	d := s.cfg.Dedupe
	return profile.Options{
		AnalyzeDuplicates:   true,
		SimilarityThreshold: d.SimilarityThreshold,
		Seed:                d.Seed,
		SampleCap:           d.SampleCap,
		NeighborCap:         d.NeighborCap,
		SummaryCutoff:       d.SummaryCutoff,
		ChunkSize:           d.ChunkSize,
	}
}

func (s *Steward) exportGroups(ctx context.Context, dataset string, ds *model.Dataset, dups *profile.DuplicateAnalysis) int {
	if s.graph == nil {
		s.logger.Warn("graph export requested without a graph database")
		return 0
	}
	if dups == nil {
		return 0
	}

	var groups []model.DuplicateGroup
	if dups.Exact != nil {
		for _, g := range dups.Exact.Groups {
			groups = append(groups, model.DuplicateGroup{Rows: g.Rows, Cohesion: 100})
		}
	}
	if dups.Fuzzy != nil {
		for _, g := range dups.Fuzzy.Groups {
			groups = append(groups, g.Group())
		}
	}

	policy := decision.Policy{ReviewThreshold: s.cfg.Dedupe.ReviewThreshold}
	n, err := driver.ExportGroups(ctx, s.graph, dataset, groups, policy, func(row int) map[string]any {
		rec := make(map[string]any, ds.Width())
		for c, v := range ds.Record(row) {
			if !v.IsNull() {
				rec[c] = v.String()
			}
		}
		return rec
	})
	if err != nil {
		s.logger.Warn("graph export failed", zap.String("dataset", dataset), zap.Error(err))
	}
	return n
}

type CleanRequest struct {
	FilePath        string               `json:"file_path"`
	CleaningTasks   []model.TaskEnvelope `json:"cleaning_tasks,omitempty"`
	AutoApply       bool                 `json:"auto_apply,omitempty"`
	ReviewThreshold *float64             `json:"review_threshold,omitempty"`
	OutputPath      string               `json:"output_path,omitempty"`
}

type CleanResponse struct {
	FileInfo profile.FileInfo `json:"file_info"`
	*cleaning.Result
	OutputFile string `json:"output_file"`
}

// CleanData cleans a file and writes the result next to it.
func (s *Steward) CleanData(ctx context.Context, req CleanRequest) (resp *CleanResponse, err error) {
	defer track(ctx, s, ToolCleanData, req.FilePath, req, &resp, &err)()

	opts := cleaning.Options{
		AutoApply:       req.AutoApply,
		ReviewThreshold: s.cfg.Dedupe.ReviewThreshold,
		Seed:            s.cfg.Dedupe.Seed,
	}
	if t := req.ReviewThreshold; t != nil {
		if *t < 0 || *t > 100 {
			return nil, fmt.Errorf("%w: review_threshold must be between 0 and 100 (got %g)", ErrInvalidRequest, *t)
		}
		opts.ReviewThreshold = *t
	}

	ds, err := tabular.Load(req.FilePath, 0)
	if err != nil {
		return nil, err
	}
	res, err := cleaning.Apply(ds, model.UnwrapTasks(req.CleaningTasks), opts)
	if err != nil {
		return nil, err
	}

	out := req.OutputPath
	if out == "" {
		out = tabular.DerivedPath(req.FilePath, "_cleaned")
	}
	if err := tabular.Write(out, res.Dataset, 0); err != nil {
		return nil, fmt.Errorf("failed to save cleaned data: %w", err)
	}
	return &CleanResponse{
		FileInfo:   profile.FileInfo{Path: req.FilePath, Rows: ds.Len(), Columns: ds.Width()},
		Result:     res,
		OutputFile: out,
	}, nil
}

type MapRequest struct {
	FilePath         string `json:"file_path"`
	FieldMappingFile string `json:"field_mapping_file,omitempty"`
	ValueMappingFile string `json:"value_mapping_file,omitempty"`
	OutputPath       string `json:"output_path,omitempty"`
}

type MapResponse struct {
	Status               string               `json:"status"`
	Message              string               `json:"message,omitempty"`
	SourceFile           string               `json:"source_file"`
	SourceColumns        []string             `json:"source_columns"`
	FieldMappingTemplate string               `json:"field_mapping_template,omitempty"`
	FieldMappings        mapping.FieldMapping `json:"field_mappings"`
	ValueMappings        mapping.ValueMapping `json:"value_mappings,omitempty"`
	ValueMappingFile     string               `json:"value_mapping_file,omitempty"`
	Summary              *mapping.Summary     `json:"mapping_summary,omitempty"`
	Unmapped             []string             `json:"unmapped,omitempty"`
	OutputFile           string               `json:"output_file,omitempty"`

	rows int
}

const (
	StatusSuccess         = "success"
	StatusComplete        = "complete"
	StatusTemplateCreated = "template_created"
)

// MapData renames fields and rewrites values. Without a usable field
// mapping it writes an identity template for the caller to edit.
func (s *Steward) MapData(ctx context.Context, req MapRequest) (resp *MapResponse, err error) {
	defer track(ctx, s, ToolMapData, req.FilePath, req, &resp, &err)()

	ds, err := tabular.Load(req.FilePath, 0)
	if err != nil {
		return nil, err
	}
	resp = &MapResponse{SourceFile: req.FilePath, SourceColumns: ds.ColumnNames()}

	fields, err := loadOptional(req.FieldMappingFile, mapping.LoadFieldMapping)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		template := mapping.Template(resp.SourceColumns)
		path := siblingPath(req.FilePath, "_field_mapping_template.json")
		if err := mapping.SaveFieldMapping(path, template); err != nil {
			return nil, err
		}
		resp.Status = StatusTemplateCreated
		resp.Message = "Created field mapping template. Please edit and provide as field_mapping_file."
		resp.FieldMappingTemplate = path
		resp.FieldMappings = template
		return resp, nil
	}

	rows, err := loadOptional(req.ValueMappingFile, mapping.LoadValueRows)
	if err != nil {
		s.logger.Warn("ignoring value mapping file", zap.String("path", req.ValueMappingFile), zap.Error(err))
		rows = nil
	} else if req.ValueMappingFile != "" {
		resp.ValueMappingFile = req.ValueMappingFile
	}
	values := mapping.Values(rows)

	res, err := mapping.Apply(ds, fields, values)
	if err != nil {
		return nil, err
	}
	out := req.OutputPath
	if out == "" {
		out = tabular.DerivedPath(req.FilePath, "_mapped")
	}
	if err := tabular.Write(out, res.Dataset, 0); err != nil {
		return nil, fmt.Errorf("failed to save mapped data: %w", err)
	}

	resp.Status = StatusComplete
	resp.FieldMappings = fields
	resp.ValueMappings = values
	resp.Summary = &res.Summary
	resp.Unmapped = res.Unmapped
	resp.OutputFile = out
	resp.rows = res.Dataset.Len()
	return resp, nil
}

type CreateValueMappingRequest struct {
	FilePath   string `json:"file_path"`
	FieldName  string `json:"field_name"`
	SampleSize int    `json:"sample_size,omitempty"`
}

type CreateValueMappingResponse struct {
	Status            string             `json:"status"`
	Message           string             `json:"message"`
	TemplateFile      string             `json:"template_file"`
	UniqueValuesCount int                `json:"unique_values_count"`
	Sample            []mapping.ValueRow `json:"sample"`
}

// CreateValueMapping writes an identity value mapping for one field.
func (s *Steward) CreateValueMapping(ctx context.Context, req CreateValueMappingRequest) (resp *CreateValueMappingResponse, err error) {
	defer track(ctx, s, ToolCreateValueMapping, req.FilePath, req, &resp, &err)()

	if req.FieldName == "" {
		return nil, fmt.Errorf("%w: field_name is required", ErrInvalidRequest)
	}
	size := req.SampleSize
	if size <= 0 {
		size = 100
	}

	ds, err := tabular.Load(req.FilePath, 0)
	if err != nil {
		return nil, err
	}
	rows, err := mapping.ValueTemplate(ds, req.FieldName, size)
	if err != nil {
		return nil, err
	}
	path := valueMappingPath(req.FilePath, req.FieldName)
	if err := mapping.SaveValueRows(path, rows, ','); err != nil {
		return nil, err
	}
	return &CreateValueMappingResponse{
		Status:            StatusSuccess,
		Message:           fmt.Sprintf("Created value mapping template for field '%s'", req.FieldName),
		TemplateFile:      path,
		UniqueValuesCount: len(rows),
		Sample:            rows[:min(10, len(rows))],
	}, nil
}

type UpdateFieldMappingRequest struct {
	FilePath            string            `json:"file_path"`
	MappingUpdates      map[string]string `json:"mapping_updates"`
	ExistingMappingFile string            `json:"existing_mapping_file,omitempty"`
}

type UpdateFieldMappingResponse struct {
	Status      string               `json:"status"`
	Message     string               `json:"message"`
	MappingFile string               `json:"mapping_file"`
	Updated     int                  `json:"updated"`
	Mapping     mapping.FieldMapping `json:"mapping"`
}

// UpdateFieldMapping merges updates into an existing field mapping, or
// into a blank one covering the file's columns.
func (s *Steward) UpdateFieldMapping(ctx context.Context, req UpdateFieldMappingRequest) (resp *UpdateFieldMappingResponse, err error) {
	defer track(ctx, s, ToolUpdateFieldMapping, req.FilePath, req, &resp, &err)()

	m, err := loadOptional(req.ExistingMappingFile, mapping.LoadFieldMapping)
	if err != nil {
		return nil, err
	}
	if m == nil {
		columns, err := tabular.Header(req.FilePath, 0)
		if err != nil {
			return nil, err
		}
		m = mapping.Blank(columns)
	}
	n := mapping.UpdateFieldMapping(m, req.MappingUpdates)

	path := req.ExistingMappingFile
	if path == "" {
		path = siblingPath(req.FilePath, "_field_mapping.json")
	}
	if err := mapping.SaveFieldMapping(path, m); err != nil {
		return nil, err
	}
	return &UpdateFieldMappingResponse{
		Status:      StatusSuccess,
		Message:     fmt.Sprintf("Field mapping updated with %d new mappings", len(req.MappingUpdates)),
		MappingFile: path,
		Updated:     n,
		Mapping:     m,
	}, nil
}

type UpdateValueMappingRequest struct {
	FilePath            string            `json:"file_path"`
	FieldName           string            `json:"field_name"`
	ValueUpdates        map[string]string `json:"value_updates"`
	ExistingMappingFile string            `json:"existing_mapping_file,omitempty"`
}

type UpdateValueMappingResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	MappingFile  string `json:"mapping_file"`
	Updated      bool   `json:"updated"`
	MappingCount int    `json:"mapping_count"`
}

// UpdateValueMapping merges old to new value pairs for one field.
func (s *Steward) UpdateValueMapping(ctx context.Context, req UpdateValueMappingRequest) (resp *UpdateValueMappingResponse, err error) {
	defer track(ctx, s, ToolUpdateValueMapping, req.FilePath, req, &resp, &err)()

	if req.FieldName == "" {
		return nil, fmt.Errorf("%w: field_name is required", ErrInvalidRequest)
	}
	if _, err := os.Stat(req.FilePath); err != nil {
		return nil, model.NotFound(req.FilePath)
	}
	rows, err := loadOptional(req.ExistingMappingFile, mapping.LoadValueRows)
	if err != nil {
		return nil, fmt.Errorf("failed to read existing value mapping file: %w", err)
	}
	rows, updated := mapping.UpdateValueMapping(rows, req.FieldName, req.ValueUpdates)

	path := req.ExistingMappingFile
	if path == "" {
		path = valueMappingPath(req.FilePath, req.FieldName)
	}
	if err := mapping.SaveValueRows(path, rows, ','); err != nil {
		return nil, err
	}
	return &UpdateValueMappingResponse{
		Status:       StatusSuccess,
		Message:      fmt.Sprintf("Value mapping updated with %d new mappings", len(req.ValueUpdates)),
		MappingFile:  path,
		Updated:      updated,
		MappingCount: len(rows),
	}, nil
}

type CheckRequest struct {
	MappedFilePath      string   `json:"mapped_file_path"`
	TargetDataFile      string   `json:"target_data_file"`
	KeyFields           []string `json:"key_fields,omitempty"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
	DuplicateHandling   string   `json:"duplicate_handling,omitempty"`
}

type CheckResponse struct {
	MappedFile string `json:"mapped_file"`
	TargetFile string `json:"target_file"`
	*migrate.Check
	OutputFiles migrate.Outputs `json:"output_files"`
}

// ValidateAndCheckDuplicates compares a mapped file with the target data
// and writes the duplicate, unique and, once decided, final files.
func (s *Steward) ValidateAndCheckDuplicates(ctx context.Context, req CheckRequest) (resp *CheckResponse, err error) {
	defer track(ctx, s, ToolValidateAndCheckDuplicates, req.MappedFilePath, req, &resp, &err)()

	handling, err := migrate.ParseHandling(req.DuplicateHandling)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	threshold := 100.0
	if t := req.SimilarityThreshold; t != nil {
		if *t < 0 || *t > 100 {
			return nil, fmt.Errorf("%w: similarity_threshold must be between 0 and 100 (got %g)", ErrInvalidRequest, *t)
		}
		threshold = *t
	}

	var mapped, target *model.Dataset
	var g errgroup.Group
	g.Go(func() (err error) {
		mapped, err = tabular.Load(req.MappedFilePath, 0)
		return err
	})
	g.Go(func() (err error) {
		target, err = tabular.Load(req.TargetDataFile, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	check, err := migrate.CheckDuplicates(mapped, target, migrate.Options{
		KeyFields: req.KeyFields,
		Threshold: threshold,
		Handling:  handling,
	})
	if err != nil {
		return nil, err
	}
	outputs, err := check.Save(migrate.OutputPaths(req.MappedFilePath, threshold), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to save duplicate check results: %w", err)
	}
	return &CheckResponse{
		MappedFile:  req.MappedFilePath,
		TargetFile:  req.TargetDataFile,
		Check:       check,
		OutputFiles: outputs,
	}, nil
}

type ProcessRequest struct {
	MappedFilePath string `json:"mapped_file_path"`
	TargetPath     string `json:"target_path"`
	HandlingOption string `json:"handling_option"`
}

// ProcessDuplicates moves the records chosen by the handling option to
// the target and saves a transfer report.
func (s *Steward) ProcessDuplicates(ctx context.Context, req ProcessRequest) (resp *migrate.Report, err error) {
	defer track(ctx, s, ToolProcessDuplicates, req.MappedFilePath, req, &resp, &err)()

	handling, err := migrate.ParseHandling(req.HandlingOption)
	if err != nil || handling == migrate.HandlingAsk {
		return nil, fmt.Errorf("%w: invalid handling option: %s. Must be 'skip', 'overwrite', or 'append'", ErrInvalidRequest, req.HandlingOption)
	}
	report, err := migrate.Transfer(req.MappedFilePath, req.TargetPath, handling, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := migrate.SaveReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

type RouteRequest struct {
	Request        string          `json:"request"`
	DataSource     string          `json:"data_source,omitempty"`
	ProfileResults *profile.Result `json:"profile_results,omitempty"`
}

// Route picks the next agent for a request.
func (s *Steward) Route(ctx context.Context, req RouteRequest) (resp *workflow.Routing, err error) {
	defer track(ctx, s, ToolStewardRoute, req.DataSource, req, &resp, &err)()

	var source *model.Dataset
	if req.DataSource != "" && req.ProfileResults == nil {
		if source, err = tabular.Load(req.DataSource, 0); err != nil {
			return nil, err
		}
	}
	return workflow.Route(req.Request, source, req.ProfileResults), nil
}

type LeadRequest struct {
	Task   string `json:"task"`
	Status string `json:"status,omitempty"`
}

func (s *Steward) Lead(ctx context.Context, req LeadRequest) (resp *workflow.LeadStatus, err error) {
	defer track(ctx, s, ToolLeadAgent, "", req, &resp, &err)()

	if req.Task == "" {
		return nil, fmt.Errorf("%w: task is required", ErrInvalidRequest)
	}
	st := workflow.Lead(req.Task, req.Status, s.now())
	return &st, nil
}

// track logs one tool run and records it in the history. It is deferred
// with pointers to the named results.
func track[T any](ctx context.Context, s *Steward, tool, path string, req any, resp *T, err *error) func() {
	start := time.Now()
	return func() {
		fields := []zap.Field{
			zap.String("tool", tool),
			zap.Duration("duration", time.Since(start)),
		}
		if path != "" {
			fields = append(fields, zap.String("path", path))
		}
		if *err != nil {
			s.logger.Info("tool failed", append(fields, zap.Error(*err))...)
		} else {
			if n, ok := rowCount(*resp); ok {
				fields = append(fields, zap.Int("rows", n))
			}
			s.logger.Info("tool completed", fields...)
		}

		if s.history == nil {
			return
		}
		var result any = *resp
		if *err != nil {
			result = map[string]string{"error": (*err).Error()}
		}
		if _, herr := s.history.Record(ctx, tool, req, result); herr != nil {
			s.logger.Warn("failed to record run", zap.String("tool", tool), zap.Error(herr))
		}
	}
}

func rowCount(resp any) (int, bool) {
	switch r := resp.(type) {
	case *ProfileResponse:
		return r.FileInfo.Rows, true
	case *CleanResponse:
		return r.CleanedRows, true
	case *MapResponse:
		return r.rows, r.Status == StatusComplete
	case *CheckResponse:
		return r.MappedRecords, true
	case *migrate.Report:
		return r.TotalRecordsTransferred, true
	}
	return 0, false
}

// loadOptional loads path with load. An empty path or a missing file
// yields the zero value.
func loadOptional[T any](path string, load func(string) (T, error)) (T, error) {
	var zero T
	if path == "" {
		return zero, nil
	}
	v, err := load(path)
	if errors.Is(err, model.ErrInputNotFound) {
		return zero, nil
	}
	return v, err
}

// siblingPath replaces the extension of path with suffix.
func siblingPath(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

func valueMappingPath(path, field string) string {
	return siblingPath(path, "_"+field+"_value_mapping.csv")
}
