package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/agentstream/pkg/logger"
	"github.com/papercomputeco/agentstream/server"
)

const serveLongDesc string = `Run the agentstream HTTP API.

Clients upload NDJSON chunk streams to /api/conversations/<id>/chunks;
the server folds them into assistant messages, stores them, and serves
the messages and the reconstructed sandbox state (sandbox id, preview
URL, written files).

Flags override values read from --config.

Examples:
  agentstream serve
  agentstream serve --listen :9090 --sqlite ~/.agentstream/agentstream.db
  agentstream serve --config agentstream.toml`

const serveShortDesc string = "Run the agentstream HTTP API"

type serveCommander struct {
	configPath string
	listenAddr string
	sqlitePath string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	return newServeCmd(&serveCommander{})
}

func newServeCmd(cmder *serveCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmder.config(cmd)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cmder.configPath, "config", "", "Path to a TOML config file")
	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Address to listen on (default :8080)")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to SQLite database (default: in-memory)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

// config loads the config file and applies the flags that were set.
func (c *serveCommander) config(cmd *cobra.Command) (server.Config, error) {
	cfg, err := server.LoadConfig(c.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.ListenAddr = c.listenAddr
	}
	if flags.Changed("sqlite") {
		cfg.DBPath = c.sqlitePath
	}
	if flags.Changed("debug") {
		cfg.Debug = c.debug
	}

	return cfg, nil
}

func (c *serveCommander) run(ctx context.Context, cfg server.Config) error {
	log := logger.NewLogger(cfg.Debug)
	defer log.Sync()

	log.Info("agentstream server starting",
		zap.String("listen", cfg.ListenAddr),
		zap.String("sqlite", cfg.DBPath),
		zap.Bool("debug", cfg.Debug),
	)

	srv, err := server.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}
	defer srv.Close()

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown()
	}()

	if err := srv.Run(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
