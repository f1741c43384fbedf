package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pevans/newsdigest/config"
	"github.com/pevans/newsdigest/digest"
	"github.com/spf13/cobra"
)

func newStylesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List the available digest styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, style := range digest.Styles() {
				marker := " "
				if style == digest.DefaultStyle {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s\t%s\n", marker, style, style.Description())
			}
			return w.Flush()
		},
	}
}

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file and create the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Initializing newsdigest...")
			fmt.Println()

			configPath, err := config.ConfigFilePath()
			if err != nil {
				return err
			}

			created, err := config.WriteDefaultConfigFile(force)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  ✗ Failed to create config file: %v\n", err)
				return err
			}
			if created {
				fmt.Printf("  ✓ Config file: %s\n", configPath)
			} else {
				fmt.Printf("  Config file: %s (already exists)\n", configPath)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			_, statErr := os.Stat(cfg.History.DSN)
			store, err := openConfiguredHistory(cfg.History)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  ✗ Failed to initialize history database: %v\n", err)
				return err
			}
			store.Close()
			if statErr == nil {
				fmt.Printf("  History database: %s (already exists)\n", cfg.History.DSN)
			} else {
				fmt.Printf("  ✓ History database: %s\n", cfg.History.DSN)
			}

			fmt.Println()
			fmt.Printf("Set %s (or another provider's key) before running 'newsdigest generate'.\n", config.EnvAnthropicKey)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
