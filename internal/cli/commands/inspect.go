package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/excel"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Parse a workbook and show its sheets and columns",
		Long: `Parse a spreadsheet the way the upload endpoint does and print
every sheet with its columns, inferred types and sample values.`,
		Example: `  settlement inspect 供应商账单.xlsx
  settlement inspect bills.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			sheets, totalRows, err := excel.Parse(path, path)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d sheets, %d data rows\n\n", path, len(sheets), totalRows)

			for _, sheet := range sheets {
				fmt.Fprintf(w, "Sheet %q (%d rows):\n", sheet.Name, sheet.RowCount)

				t := table.NewWriter()
				t.SetOutputMirror(w)
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"Column", "Name", "Type", "Sample"})
				for _, f := range sheet.Fields {
					t.AppendRow(table.Row{f.Column, f.Name, f.Type, f.Sample})
				}
				t.Render()
				fmt.Fprintln(w)
			}

			return nil
		},
	}
}
