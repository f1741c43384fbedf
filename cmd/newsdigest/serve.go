package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/newsdigest/api"
	"github.com/pevans/newsdigest/generator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	var (
		addr      string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the digest HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if !verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			genCfg := generator.Config{
				Scraper: cfg.Scraper,
				Digest:  cfg.Digest,
				Style:   cfg.Style,
				Logger:  logger,
			}
			genCfg.Scraper.Logger = logger.Named("scraper")

			var historyStore api.HistoryStore
			if !noHistory {
				store, err := openConfiguredHistory(cfg.History)
				if err != nil {
					return err
				}
				defer store.Close()
				genCfg.Recorder = store
				historyStore = store
			}

			gen, err := generator.NewFromSettings(cfg.LLM, genCfg)
			if err != nil {
				return err
			}

			server := api.NewServer(gen, historyStore, api.Options{
				RequestTimeout: cfg.Server.RequestTimeout,
				Logger:         logger.Named("api"),
			})

			httpServer := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           server.SetupRouter(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errChan := make(chan error, 1)
			go func() {
				logger.Info("starting digest API server", zap.String("addr", cfg.Server.Addr))
				errChan <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errChan:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				logger.Info("shutting down gracefully")
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return httpServer.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":8080\")")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "run without the history database")

	return cmd
}
