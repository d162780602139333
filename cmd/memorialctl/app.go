package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stine-ri/wings-of-memory/client"
	"github.com/stine-ri/wings-of-memory/internal/config"
	"github.com/stine-ri/wings-of-memory/internal/localstate"
	"github.com/stine-ri/wings-of-memory/internal/logger"
	"github.com/stine-ri/wings-of-memory/internal/memorywall"
	"github.com/stine-ri/wings-of-memory/internal/session"
)

// tokenKey holds the account token saved by login and register.
const tokenKey = "authToken"

// app carries the state shared by every subcommand. Tests fill kv and cfg
// before running a command; otherwise they are opened on first use.
type app struct {
	out io.Writer
	in  io.Reader

	cfg *config.ClientConfig
	kv  localstate.Storage
	log zerolog.Logger

	apiFlag      string
	stateDirFlag string
	closers      []func() error
}

func (a *app) init(cmd *cobra.Command) error {
	if a.cfg == nil {
		cfg, err := config.NewClient()
		if err != nil {
			return err
		}
		a.cfg = cfg
		a.log = zerolog.Nop()
		if cfg.Debug {
			a.log = logger.New("memorialctl")
		}
	}
	if cmd.Flags().Changed("api") {
		a.cfg.APIURL = a.apiFlag
	}
	if cmd.Flags().Changed("state-dir") {
		a.cfg.StateDir = a.stateDirFlag
	}
	if a.kv != nil {
		return nil
	}
	path, err := localstate.DBPath(a.cfg.StateDir)
	if err != nil {
		return fmt.Errorf("state dir: %w", err)
	}
	kv, err := localstate.OpenSQLite(path)
	if err != nil {
		return err
	}
	a.kv = kv
	a.closers = append(a.closers, kv.Close)
	return nil
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c()
	}
	a.closers = nil
}

func (a *app) sessions() *session.Provider {
	return session.NewProvider(a.kv, session.WithLogger(a.log))
}

func (a *app) wall() *memorywall.Wall {
	st := memorywall.NewStore(a.kv, memorywall.WithLogger(a.log), memorywall.WithImageTTL(a.cfg.ImageTTL))
	return memorywall.NewWall(st, a.sessions())
}

// loadWall returns the wall after expiring old images, as a page load would.
// A failed sweep is logged and the wall is still returned.
func (a *app) loadWall(ctx context.Context) *memorywall.Wall {
	w := a.wall()
	if _, err := w.Sweep(ctx); err != nil {
		a.log.Warn().Err(err).Msg("image sweep failed")
	}
	return w
}

// client builds an SDK client carrying the saved token, if any.
func (a *app) client(ctx context.Context) (*client.Client, error) {
	opts := []client.Option{
		client.WithHTTPTimeout(a.cfg.HTTPTimeout),
		client.WithLogger(a.log),
		client.WithDebugLogging(a.cfg.Debug),
	}
	if tok, ok, err := a.kv.GetItem(ctx, tokenKey); err == nil && ok && tok != "" {
		opts = append(opts, client.WithToken(tok))
	}
	return client.New(a.cfg.APIURL, opts...)
}

func (a *app) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "memorialctl",
		Short:         "Wings of Memory command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVarP(&a.apiFlag, "api", "a", "", "Memorial service base URL (default WINGS_CLIENT_API_URL)")
	root.PersistentFlags().StringVar(&a.stateDirFlag, "state-dir", "", "Local state directory (default WINGS_CLIENT_STATE_DIR or ~/.wings-of-memory)")

	root.AddCommand(
		newSessionCmd(a),
		newWallCmd(a),
		newImageCmd(a),
		newSearchCmd(a),
		newTributesCmd(a),
		newLoginCmd(a),
		newRegisterCmd(a),
	)
	return root
}
