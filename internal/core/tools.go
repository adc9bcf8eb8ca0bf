package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

const (
	ToolProfileCSV                 = "profile_csv"
	ToolCleanData                  = "clean_data"
	ToolMapData                    = "map_data"
	ToolCreateValueMapping         = "create_value_mapping"
	ToolUpdateFieldMapping         = "update_field_mapping"
	ToolUpdateValueMapping         = "update_value_mapping"
	ToolValidateAndCheckDuplicates = "validate_and_check_duplicates"
	ToolProcessDuplicates          = "process_duplicates"
	ToolStewardRoute               = "steward_route"
	ToolLeadAgent                  = "lead_agent"
)

// ErrUnknownTool is returned by Call for names Tools does not list.
var ErrUnknownTool = errors.New("unknown tool")

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required,omitempty"`
}

// Tool describes one operation the way both façades publish it.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"parameters"`

	run func(ctx context.Context, args json.RawMessage) (any, error)
}

// Run decodes args into the tool's request and executes it.
func (t Tool) Run(ctx context.Context, args json.RawMessage) (any, error) {
	return t.run(ctx, args)
}

func required(name string, typ ParamType, desc string) Param {
	return Param{Name: name, Type: typ, Description: desc, Required: true}
}

func optional(name string, typ ParamType, desc string) Param {
	return Param{Name: name, Type: typ, Description: desc}
}

// Tools lists every operation, sorted by name.
func (s *Steward) Tools() []Tool {
	tools := []Tool{
		{
			Name:        ToolProfileCSV,
			Description: "Profiles a CSV file: column statistics, data quality, duplicates and a cleaning plan",
			Params: []Param{
				required("file_path", TypeString, "Path to the CSV file"),
				optional("focus_columns", TypeArray, "Columns to describe; all columns when empty"),
				optional("analyze_duplicates", TypeBoolean, "Look for exact and fuzzy duplicates (default true)"),
				optional("similarity_threshold", TypeNumber, "Minimum 0-100 similarity for fuzzy duplicates"),
				optional("ai_analysis", TypeBoolean, "Ask the configured language model for insights"),
				optional("export_graph", TypeBoolean, "Export duplicate groups to the graph database"),
			},
			run: handler(s.ProfileCSV),
		},
		{
			Name:        ToolCleanData,
			Description: "Cleans a CSV file by removing duplicates, filling missing values and standardizing capitalization",
			Params: []Param{
				required("file_path", TypeString, "Path to the CSV file"),
				optional("cleaning_tasks", TypeArray, "Tasks to run in order; derived from the data when empty"),
				optional("auto_apply", TypeBoolean, "Merge fuzzy duplicate groups above the review threshold"),
				optional("review_threshold", TypeNumber, "Group cohesion below which a person decides (default 85)"),
				optional("output_path", TypeString, "Where to write the cleaned file"),
			},
			run: handler(s.CleanData),
		},
		{
			Name:        ToolMapData,
			Description: "Maps a CSV file onto target fields and values; creates a field mapping template when none is given",
			Params: []Param{
				required("file_path", TypeString, "Path to the source CSV file"),
				optional("field_mapping_file", TypeString, "JSON, YAML or CSV field mapping"),
				optional("value_mapping_file", TypeString, "CSV value mapping with field,old_value,new_value"),
				optional("output_path", TypeString, "Where to write the mapped file"),
			},
			run: handler(s.MapData),
		},
		{
			Name:        ToolCreateValueMapping,
			Description: "Creates a value mapping template for one field",
			Params: []Param{
				required("file_path", TypeString, "Path to the source CSV file"),
				required("field_name", TypeString, "Field to list values of"),
				optional("sample_size", TypeNumber, "Maximum number of distinct values (default 100)"),
			},
			run: handler(s.CreateValueMapping),
		},
		{
			Name:        ToolUpdateFieldMapping,
			Description: "Adds or changes field mappings",
			Params: []Param{
				required("file_path", TypeString, "Path to the source CSV file"),
				required("mapping_updates", TypeObject, "Source field to target field"),
				optional("existing_mapping_file", TypeString, "Mapping file to update"),
			},
			run: handler(s.UpdateFieldMapping),
		},
		{
			Name:        ToolUpdateValueMapping,
			Description: "Adds or changes value mappings of one field",
			Params: []Param{
				required("file_path", TypeString, "Path to the source CSV file"),
				required("field_name", TypeString, "Field the values belong to"),
				required("value_updates", TypeObject, "Old value to new value"),
				optional("existing_mapping_file", TypeString, "Value mapping file to update"),
			},
			run: handler(s.UpdateValueMapping),
		},
		{
			Name:        ToolValidateAndCheckDuplicates,
			Description: "Checks mapped records against the target data for duplicates",
			Params: []Param{
				required("mapped_file_path", TypeString, "Path to the mapped CSV file"),
				required("target_data_file", TypeString, "Path to the existing target data"),
				optional("key_fields", TypeArray, "Fields identifying a record; common columns when empty"),
				optional("similarity_threshold", TypeNumber, "Minimum 0-100 similarity of a duplicate (default 100)"),
				optional("duplicate_handling", TypeString, "ask, skip, overwrite or append (default ask)"),
			},
			run: handler(s.ValidateAndCheckDuplicates),
		},
		{
			Name:        ToolProcessDuplicates,
			Description: "Transfers mapped records to the target according to the handling option",
			Params: []Param{
				required("mapped_file_path", TypeString, "Path to the mapped CSV file"),
				required("target_path", TypeString, "Where the final data is written"),
				required("handling_option", TypeString, "skip, overwrite or append"),
			},
			run: handler(s.ProcessDuplicates),
		},
		{
			Name:        ToolStewardRoute,
			Description: "Routes a request to the agent that should handle it next",
			Params: []Param{
				optional("request", TypeString, "What the user asked for"),
				optional("data_source", TypeString, "CSV file the request is about"),
				optional("profile_results", TypeObject, "Output of profile_csv"),
			},
			run: handler(s.Route),
		},
		{
			Name:        ToolLeadAgent,
			Description: "Reports the next orchestration action for a task",
			Params: []Param{
				required("task", TypeString, "Task name"),
				optional("status", TypeString, "pending, in_progress, completed or failed"),
			},
			run: handler(s.Lead),
		},
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Call runs the named tool with JSON arguments.
func (s *Steward) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	for _, t := range s.Tools() {
		if t.Name == name {
			return t.Run(ctx, args)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

func handler[Req, Resp any](fn func(context.Context, Req) (Resp, error)) func(context.Context, json.RawMessage) (any, error) {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var req Req
		if len(bytes.TrimSpace(args)) > 0 {
			if err := json.Unmarshal(args, &req); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
			}
		}
		resp, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
}
