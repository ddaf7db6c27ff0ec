package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/bsa"
)

func newHashCmd() *cobra.Command {
	var folder bool

	cmd := &cobra.Command{
		Use:   "hash NAME...",
		Short: "Print the record hash of file or folder names",
		Example: "  bsapack hash cuirass.nif\n" +
			`  bsapack hash --folder 'meshes\armor\iron'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range args {
				var h uint64
				if folder {
					h = bsa.HashFolder(name)
				} else {
					h = bsa.HashFile(name)
				}
				fmt.Fprintf(out, "%016x  %s\n", h, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&folder, "folder", false, "hash the names as folders")
	return cmd
}
