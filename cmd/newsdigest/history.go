package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pevans/newsdigest/config"
	"github.com/pevans/newsdigest/digest"
	"github.com/pevans/newsdigest/history"
	"github.com/spf13/cobra"
)

// openHistory opens the sqlite history database, creating its directory.
func openHistory(dsn string) (*history.Store, error) {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	return history.NewStore(dsn)
}

// openConfiguredHistory opens the history store described by cfg. Only the
// sqlite type is supported.
func openConfiguredHistory(cfg config.HistoryConfig) (*history.Store, error) {
	if cfg.Type != config.DefaultHistoryType {
		return nil, fmt.Errorf("unsupported history storage type: %s", cfg.Type)
	}

	store, err := openHistory(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

// withHistory loads configuration and runs fn against the history store.
func withHistory(fn func(cfg *config.Config, store *history.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openConfiguredHistory(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(cfg, store)
}

// resolveID accepts a full UUID or a unique prefix of one.
func resolveID(store *history.Store, arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}

	records, err := store.List(history.Filter{})
	if err != nil {
		return uuid.Nil, err
	}

	var match *history.Record
	for i := range records {
		if strings.HasPrefix(records[i].ID.String(), strings.ToLower(arg)) {
			if match != nil {
				return uuid.Nil, fmt.Errorf("ambiguous digest ID prefix: %s", arg)
			}
			match = &records[i]
		}
	}
	if match == nil {
		return uuid.Nil, fmt.Errorf("%w: %s", history.ErrDigestNotFound, arg)
	}
	return match.ID, nil
}

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse previously generated digests",
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryDeleteCommand())

	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var (
		limit  int
		offset int
		source string
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored digests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}
			if offset < 0 {
				return fmt.Errorf("--offset must not be negative")
			}

			return withHistory(func(_ *config.Config, store *history.Store) error {
				filter := history.Filter{Limit: limit, Offset: offset}
				if source != "" {
					filter.SourceURL = &source
				}

				records, err := store.List(filter)
				if err != nil {
					return err
				}

				switch format {
				case "json":
					out, err := marshalJSON(map[string]any{"digests": records})
					if err != nil {
						return err
					}
					return writeOutput("", out)
				case "compact":
					printHistoryCompact(records)
				case "table":
					printHistoryTable(records, offset)
				default:
					return fmt.Errorf("invalid --format %q: must be table, compact or json", format)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of digests to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of digests to skip")
	cmd.Flags().StringVar(&source, "source", "", "only show digests of this source URL")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, compact or json")

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(func(cfg *config.Config, store *history.Store) error {
				id, err := resolveID(store, args[0])
				if err != nil {
					return err
				}

				record, err := store.Get(id)
				if err != nil {
					return err
				}

				var out string
				switch format {
				case "markdown":
					out = record.Markdown
				case "html":
					out, err = digest.RenderHTML(record.Digest, cfg.Digest.MaxSummaryWords)
				case "json":
					out, err = marshalJSON(record)
				default:
					return fmt.Errorf("invalid --format %q: must be markdown, html or json", format)
				}
				if err != nil {
					return err
				}
				return writeOutput("", out)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: markdown, html or json")

	return cmd
}

func newHistoryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(func(_ *config.Config, store *history.Store) error {
				id, err := resolveID(store, args[0])
				if err != nil {
					return err
				}
				if err := store.Delete(id); err != nil {
					return err
				}
				fmt.Printf("Deleted digest %s\n", id)
				return nil
			})
		},
	}
}
