package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/krisalay/datacache/parish"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [key...]",
		Short: "Print cached content as JSON",
		Long: "Print the value of each cache key as JSON. Known keys are " +
			parish.ContentKey + ", " + parish.MassTimesKey + " and church-entity-<id>.",
		Example: `  datacache show cms-content
  datacache show mass-times church-entity-st-joseph --content ./content`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := a.newSite(nil)
			if err != nil {
				return err
			}
			defer site.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for _, key := range args {
				v, err := site.Load(cmd.Context(), key)
				if err != nil {
					return err
				}
				if err := enc.Encode(v); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
