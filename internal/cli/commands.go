// Package cli provides the command-line interface for the advisor service.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/finchat/advisor/config"
	"github.com/finchat/advisor/consts"
	"github.com/finchat/advisor/internal/advisor"
	"github.com/finchat/advisor/internal/gateway"
	"github.com/finchat/advisor/internal/market"
	"github.com/finchat/advisor/internal/server"
	"github.com/finchat/advisor/internal/session"
)

const version = "1.0.0"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "advisor",
		Short: "AI financial advisor backend",
		Long: `A conversational financial-advisor backend. It accumulates a financial
profile across turns, grounds the model in that profile plus market context,
and refuses to let it invent facts the user never gave.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Debug = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg, nil)
		},
	}

	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newChatCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mgr *config.Manager
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				var err error
				mgr, err = config.NewManager(
					config.WithConfigPath(path),
					config.WithInitialConfig(cfg),
				)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				fileCfg := mgr.Get()
				// The API key is never written to disk; it stays env-sourced.
				fileCfg.LLMAPIKey = cfg.LLMAPIKey
				cfg = &fileCfg
			}
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				cfg.Port = port
			}
			return runServe(cfg, mgr)
		},
	}

	cmd.Flags().String("config", "", "Path to a JSON config file")
	cmd.Flags().Int("port", 0, "Listen port (overrides PORT env)")

	return cmd
}

func newChatCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the advisor from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cfg)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("advisor v%s\n", version)
		},
	}
}

func newLogger(cfg *config.Config) *log.Logger {
	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
		TimeFormat:      time.Kitchen,
	})
}

// buildEngine wires the engine from config: session store, market provider,
// and the LLM gateway.
func buildEngine(ctx context.Context, cfg *config.Config, logger *log.Logger) (*advisor.Engine, session.Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var sessions session.Repository
	var err error
	switch cfg.SessionBackend {
	case consts.SessionBackendSQLite:
		sessions, err = session.OpenSQLite(cfg.SessionDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
	default:
		sessions = session.NewMemoryStore(cfg.SessionTTL())
	}

	chat, err := gateway.New(ctx, cfg)
	if err != nil {
		_ = sessions.Close()
		return nil, nil, fmt.Errorf("create llm gateway: %w", err)
	}

	provider := market.NewService(cfg.MarketTimeout(), logger)

	return advisor.NewEngine(sessions, provider, chat, logger), sessions, nil
}

func runServe(cfg *config.Config, mgr *config.Manager) error {
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Watch the config file for external edits. The running wiring is built
	// once, so a change is logged and applies on the next start.
	if mgr != nil {
		if err := mgr.Watch(ctx, func(updated config.Config) {
			logger.Info("config file changed, restart to apply",
				"path", mgr.Path(), "llm_provider", updated.LLMProvider)
		}); err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
	}

	engine, sessions, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sessions.Close()

	srv := server.New(cfg, engine, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("advisor stopped")
	return nil
}
