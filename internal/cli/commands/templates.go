package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/store"
)

// NewTemplatesCommand creates the templates command.
func NewTemplatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List stored mapping templates",
		Long:  `List every saved template with its field and mapping counts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig()

			st := store.NewSQLiteStore()
			if err := st.Open(cfg.StatePath); err != nil {
				return fmt.Errorf("failed to open template database: %w", err)
			}
			defer st.Close()

			all, err := st.List()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(all) == 0 {
				fmt.Fprintln(w, "No templates stored.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(w)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Fields", "Mappings", "Updated"})
			for _, tpl := range all {
				t.AppendRow(table.Row{
					tpl.ID,
					tpl.Name,
					len(tpl.TargetFields),
					len(tpl.FieldMappings),
					tpl.UpdatedAt.Format("2006-01-02 15:04"),
				})
			}
			t.Render()
			fmt.Fprintf(w, "(%d templates)\n", len(all))

			return nil
		},
	}
}
