package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vibetab/logger"
	"vibetab/text"
	"vibetab/types"
)

var version = "0.3.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		logger.Fatal("%v", err)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vibetab",
		Short:         "Inline AI completion daemon for browser editors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), diffCmd(), versionCmd())
	return root
}

func serveCmd() *cobra.Command {
	cfg := types.DefaultConfig()
	var cacheTTLMin, debounceMs, idleMs, cooldownMs, timeoutSec int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the completion daemon",
		Long: `Runs the HTTP daemon. Editors connect to ws://<addr>/session and
speak the JSON session protocol; each connection owns one suggestion
engine. The upstream completion service is shared across sessions
behind a bounded cache and a rate limiter.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.CacheTTL = time.Duration(cacheTTLMin) * time.Minute
			cfg.TextChangeDebounce = time.Duration(debounceMs) * time.Millisecond
			cfg.CursorIdleDelay = time.Duration(idleMs) * time.Millisecond
			cfg.AcceptCooldown = time.Duration(cooldownMs) * time.Millisecond
			cfg.CompletionTimeout = time.Duration(timeoutSec) * time.Second

			if cfg.ProviderKey == "" {
				cfg.ProviderKey = os.Getenv("VIBETAB_API_KEY")
			}
			if cfg.ProviderKey == "" {
				return fmt.Errorf("no provider API key: set --provider-key or VIBETAB_API_KEY")
			}

			logger.Setup(cfg.LogLevel, cfg.LogFile)

			daemon := NewDaemon(cfg)
			return daemon.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	f.StringVar(&cfg.ProviderURL, "provider-url", cfg.ProviderURL, "completion provider base URL")
	f.StringVar(&cfg.ProviderKey, "provider-key", "", "completion provider API key")
	f.StringVar(&cfg.ProviderModel, "provider-model", cfg.ProviderModel, "completion model name")
	f.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "completion cache capacity")
	f.IntVar(&cacheTTLMin, "cache-ttl", int(cfg.CacheTTL/time.Minute), "completion cache TTL in minutes")
	f.IntVar(&cfg.RequestsPerMin, "rate-limit", cfg.RequestsPerMin, "max upstream requests per minute")
	f.IntVar(&cfg.MinSuggestionLen, "min-suggestion-len", cfg.MinSuggestionLen, "minimum accepted completion length")
	f.IntVar(&debounceMs, "debounce", int(cfg.TextChangeDebounce/time.Millisecond), "text change debounce in milliseconds")
	f.IntVar(&idleMs, "idle-delay", int(cfg.CursorIdleDelay/time.Millisecond), "cursor idle delay in milliseconds")
	f.IntVar(&cooldownMs, "accept-cooldown", int(cfg.AcceptCooldown/time.Millisecond), "post-accept cooldown in milliseconds")
	f.IntVar(&timeoutSec, "completion-timeout", int(cfg.CompletionTimeout/time.Second), "upstream completion timeout in seconds")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	f.StringVar(&cfg.LogFile, "log-file", "", "log file path (default stderr only)")
	return cmd
}

func diffCmd() *cobra.Command {
	var contextLines int

	cmd := &cobra.Command{
		Use:   "diff <old-file> <new-file>",
		Short: "Print grouped line diff blocks and stats for two files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldBytes, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			newBytes, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}

			diff := text.ComputeDiff(string(oldBytes), string(newBytes))
			blocks := text.GroupDiffBlocks(diff, contextLines)
			stats := text.GetDiffStats(diff)

			out := cmd.OutOrStdout()
			for _, block := range blocks {
				if !block.HasChanges {
					fmt.Fprintf(out, "  ... %d unchanged line(s)\n", len(block.Lines))
					continue
				}
				for _, line := range block.Lines {
					switch line.Kind {
					case text.LineInsert:
						fmt.Fprintf(out, "+ %s\n", line.Modified)
					case text.LineDelete:
						fmt.Fprintf(out, "- %s\n", line.Original)
					case text.LineModify:
						fmt.Fprintf(out, "- %s\n+ %s\n", line.Original, line.Modified)
					default:
						fmt.Fprintf(out, "  %s\n", line.Original)
					}
				}
			}
			fmt.Fprintf(out, "%d addition(s), %d deletion(s), %d modification(s)\n",
				stats.Additions, stats.Deletions, stats.Modifications)
			return nil
		},
	}

	cmd.Flags().IntVar(&contextLines, "context", 3, "unchanged context lines around each change")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vibetab version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibetab %s\n", version)
		},
	}
}
