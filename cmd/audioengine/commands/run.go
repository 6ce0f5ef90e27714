package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oakmix/audioengine/pkg/audio/router"
	"github.com/oakmix/audioengine/pkg/control"
	"github.com/oakmix/audioengine/pkg/journal"
	"github.com/oakmix/audioengine/pkg/kv"
)

var (
	runFile        string
	runSessionID   string
	runJournalDir  string
	runControlAddr string
)

var runCmd = &cobra.Command{
	Use:   "run -f <file>",
	Short: "Start a session from a YAML config and block until stopped",
	Long: `Start a session from a YAML config (use '-' to read from stdin) and
block until interrupted (SIGINT/SIGTERM) or the session fails.

If --journal-dir is set, session start, a failed start and session stop
are appended to a durable journal in that directory. If --control-addr is
set, a websocket monitor/control server is served at that address
exposing the session's live snapshot and accepting pause/resume/
add_rule/remove_source commands (see pkg/control).

Examples:
  audioengine run -f session.yaml
  audioengine run -f session.yaml --journal-dir ./journal --session sess1
  audioengine run -f session.yaml --control-addr :9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runFile == "" {
			return fmt.Errorf("flag -f is required")
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
		logger := slog.Default()

		data, err := readConfigFile(runFile)
		if err != nil {
			return err
		}
		doc, err := router.ParseConfigDocument(data)
		if err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
		cfg, err := doc.ToSessionConfig()
		if err != nil {
			return fmt.Errorf("config conversion failed: %w", err)
		}

		sessionID := runSessionID
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		var j *journal.Journal
		if runJournalDir != "" {
			store, err := kv.NewBadger(kv.BadgerOptions{Dir: runJournalDir})
			if err != nil {
				return fmt.Errorf("opening journal store: %w", err)
			}
			defer store.Close()
			j = journal.New(store)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			logger.Info("shutting down...")
			cancel()
		}()

		logger.Info("starting session", "id", sessionID, "sources", len(cfg.Sources), "destinations", len(cfg.Destinations))
		session, err := router.StartSession(sessionID, cfg)
		if err != nil {
			if j != nil {
				j.Append(ctx, sessionID, journal.EventError, err.Error())
			}
			return fmt.Errorf("starting session: %w", err)
		}
		defer session.StopSession()

		if j != nil {
			j.Append(ctx, sessionID, journal.EventSessionStarted, fmt.Sprintf("%d sources, %d destinations", len(cfg.Sources), len(cfg.Destinations)))
			defer j.Append(context.Background(), sessionID, journal.EventSessionStopped, "")
		}

		if runControlAddr != "" {
			srv := control.NewServer(session, control.EncodingJSON, 0)
			httpSrv := &http.Server{Addr: runControlAddr, Handler: srv}
			go func() {
				logger.Info("control server listening", "addr", runControlAddr)
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("control server error", "err", err)
				}
			}()
			go func() {
				<-ctx.Done()
				httpSrv.Close()
			}()
		}

		<-ctx.Done()
		logger.Info("session stopped", "id", sessionID)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "session config YAML file (use '-' for stdin)")
	runCmd.Flags().StringVar(&runSessionID, "session", "", "session id (random uuid if unset)")
	runCmd.Flags().StringVar(&runJournalDir, "journal-dir", "", "directory for the durable lifecycle journal (disabled if unset)")
	runCmd.Flags().StringVar(&runControlAddr, "control-addr", "", "listen address for the websocket monitor/control server (disabled if unset)")
	rootCmd.AddCommand(runCmd)
}
