// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of topaz",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("topaz %s\n", version)

		dump, _ := cmd.Flags().GetBool("config-dump")
		if !dump {
			return nil
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Println()
		return writeYAML(cfg)
	},
}

func init() {
	versionCmd.Flags().Bool("config-dump", false, "also print the effective configuration as YAML")

	rootCmd.AddCommand(versionCmd)
}

func writeYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
