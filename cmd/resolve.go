package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var selection string
	var generations []int

	cmd := &cobra.Command{
		Use:   "resolve [selection]",
		Short: "Preview which entity IDs a selection expands to",
		Long: `Resolve expands a selection expression or generation list to the exact
entity IDs a generate run would use, without touching the network.`,
		Example: `  printdex resolve 1,4,7-9
  printdex resolve -s 25
  printdex resolve -g 1,2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				selection = args[0]
			}
			ids, err := resolveIDs(selection, generations)
			if err != nil {
				return err
			}

			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = strconv.Itoa(id)
			}
			fmt.Println(strings.Join(parts, ","))
			fmt.Printf("%d entities\n", len(ids))
			return nil
		},
	}

	cmd.Flags().StringVarP(&selection, "selection", "s", "", "Selection expression (e.g. \"1,4,7-9\")")
	cmd.Flags().IntSliceVarP(&generations, "generation", "g", nil, "Generation numbers 1-9 (e.g. 1 or 1,2)")

	return cmd
}
