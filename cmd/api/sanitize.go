package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

func init() {
	rootCmd.AddCommand(sanitizeCmd)
}

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize <store name>",
	Short: "Print the folder name a store name maps to",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), domain.SanitizeName(strings.Join(args, " ")))
	},
}
