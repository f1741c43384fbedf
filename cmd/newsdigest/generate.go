package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pevans/newsdigest/config"
	"github.com/pevans/newsdigest/digest"
	"github.com/pevans/newsdigest/generator"
	"github.com/pevans/newsdigest/history"
	"github.com/pevans/newsdigest/llm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type generateOptions struct {
	count     string
	output    string
	format    string
	style     string
	urls      []string
	feed      bool
	noHistory bool
	provider  string
	model     string
	maxWords  int
	quiet     bool
}

func newGenerateCommand() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [url]",
		Short: "Scrape a site and print a digest of its latest articles",
		Example: `  newsdigest generate example.com/blog -n 5
  newsdigest generate --url https://example.com/a --url https://example.com/b
  newsdigest generate example.com/feed.xml --feed --format html -o digest.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var url string
			if len(args) == 1 {
				url = args[0]
			}
			if url == "" && len(opts.urls) == 0 {
				return errors.New("a URL argument or at least one --url is required")
			}
			return runGenerate(cmd, url, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.count, "count", "n", "10", "number of articles to summarise (1-20)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the digest to a file instead of stdout")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "markdown", "output format: markdown, html or json")
	cmd.Flags().StringVar(&opts.style, "style", "", "digest style (see 'newsdigest styles')")
	cmd.Flags().StringArrayVar(&opts.urls, "url", nil, "summarise this article URL directly (repeatable)")
	cmd.Flags().BoolVar(&opts.feed, "feed", false, "treat the URL as an RSS or Atom feed")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record the digest in the history database")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "LLM provider: anthropic, openai, deepseek or static")
	cmd.Flags().StringVar(&opts.model, "model", "", "LLM model name")
	cmd.Flags().IntVar(&opts.maxWords, "max-words", 0, "maximum words per article summary")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress progress messages")

	return cmd
}

func runGenerate(cmd *cobra.Command, url string, opts *generateOptions) error {
	switch opts.format {
	case "markdown", "html", "json":
	default:
		return fmt.Errorf("invalid --format %q: must be markdown, html or json", opts.format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.provider != "" && opts.provider != cfg.LLM.Provider {
		cfg.LLM.Provider = opts.provider
		cfg.LLM.Model = ""
		cfg.LLM.BaseURL = ""
		cfg.LLM.APIKey = os.Getenv(apiKeyVar(opts.provider))
	}
	if opts.model != "" {
		cfg.LLM.Model = opts.model
	}
	if opts.maxWords > 0 {
		cfg.Digest.MaxSummaryWords = opts.maxWords
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var store *history.Store
	if !opts.noHistory {
		store, err = openConfiguredHistory(cfg.History)
		if err != nil {
			logger.Warn("history disabled", zap.Error(err))
		} else {
			defer store.Close()
		}
	}

	genCfg := generator.Config{
		Scraper: cfg.Scraper,
		Digest:  cfg.Digest,
		Style:   cfg.Style,
		Logger:  logger,
	}
	genCfg.Scraper.Logger = logger.Named("scraper")
	if store != nil {
		genCfg.Recorder = store
	}

	gen, err := generator.NewFromSettings(cfg.LLM, genCfg)
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return fmt.Errorf("%w: set %s or add llm.api_key to the config file", err, apiKeyVar(cfg.LLM.Provider))
	}
	if err != nil {
		return err
	}

	req := generator.Request{
		URL:   url,
		Count: generator.ClampCount(opts.count),
		URLs:  opts.urls,
		Feed:  opts.feed,
		Style: opts.style,
	}
	if !opts.quiet {
		req.Progress = func(message string) {
			fmt.Fprintln(os.Stderr, message)
		}
	}

	result, err := gen.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	output, err := renderResult(result, opts.format, cfg.Digest.MaxSummaryWords)
	if err != nil {
		return err
	}

	if err := writeOutput(opts.output, output); err != nil {
		return err
	}
	if opts.output != "" && !opts.quiet {
		fmt.Fprintf(os.Stderr, "Digest written to %s\n", opts.output)
	}
	return nil
}

// renderResult formats a generated digest for output.
func renderResult(result *generator.Result, format string, maxWords int) (string, error) {
	switch format {
	case "html":
		return digest.RenderHTML(result.Digest, maxWords)
	case "json":
		return marshalJSON(result)
	default:
		return result.Markdown, nil
	}
}

func apiKeyVar(provider string) string {
	switch provider {
	case llm.ProviderOpenAI:
		return config.EnvOpenAIKey
	case llm.ProviderDeepSeek:
		return config.EnvDeepSeekKey
	default:
		return config.EnvAnthropicKey
	}
}
