package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agenthands/steward/internal/core"
)

var mapCmd = &cobra.Command{
	Use:   "map FILE",
	Short: "Map a CSV file onto target fields",
	Long:  `Rename fields and rewrite values. Without a field mapping a template is written next to FILE.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fields, _ := cmd.Flags().GetString("fields")
		values, _ := cmd.Flags().GetString("values")
		output, _ := cmd.Flags().GetString("output")

		resp, err := svc.Steward.MapData(context.Background(), core.MapRequest{
			FilePath:         args[0],
			FieldMappingFile: fields,
			ValueMappingFile: values,
			OutputPath:       output,
		})
		report("Map", resp, err)
	},
}

var valueMapCmd = &cobra.Command{
	Use:   "value-map FILE FIELD",
	Short: "Write a value mapping template for one field",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		sample, _ := cmd.Flags().GetInt("sample")

		resp, err := svc.Steward.CreateValueMapping(context.Background(), core.CreateValueMappingRequest{
			FilePath:   args[0],
			FieldName:  args[1],
			SampleSize: sample,
		})
		report("Value Mapping", resp, err)
	},
}

var setFieldCmd = &cobra.Command{
	Use:   "set-field FILE SOURCE=TARGET...",
	Short: "Add or change field mappings",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		mappingFile, _ := cmd.Flags().GetString("mapping")
		updates, err := pairs(args[1:])
		if err != nil {
			fail("invalid field mapping", err)
		}

		resp, err := svc.Steward.UpdateFieldMapping(context.Background(), core.UpdateFieldMappingRequest{
			FilePath:            args[0],
			MappingUpdates:      updates,
			ExistingMappingFile: mappingFile,
		})
		report("Field Mapping", resp, err)
	},
}

var setValueCmd = &cobra.Command{
	Use:   "set-value FILE FIELD OLD=NEW...",
	Short: "Add or change value mappings of one field",
	Args:  cobra.MinimumNArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		mappingFile, _ := cmd.Flags().GetString("mapping")
		updates, err := pairs(args[2:])
		if err != nil {
			fail("invalid value mapping", err)
		}

		resp, err := svc.Steward.UpdateValueMapping(context.Background(), core.UpdateValueMappingRequest{
			FilePath:            args[0],
			FieldName:           args[1],
			ValueUpdates:        updates,
			ExistingMappingFile: mappingFile,
		})
		report("Value Mapping", resp, err)
	},
}

func init() {
	mapCmd.Flags().String("fields", "", "JSON, YAML or CSV field mapping")
	mapCmd.Flags().String("values", "", "CSV value mapping")
	mapCmd.Flags().StringP("output", "o", "", "Where to write the mapped file")
	valueMapCmd.Flags().Int("sample", 0, "Maximum number of distinct values (default 100)")
	setFieldCmd.Flags().String("mapping", "", "Field mapping file to update")
	setValueCmd.Flags().String("mapping", "", "Value mapping file to update")

	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(valueMapCmd)
	rootCmd.AddCommand(setFieldCmd)
	rootCmd.AddCommand(setValueCmd)
}
