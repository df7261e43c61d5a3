package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/tg-messenger/internal/crypto"
	"github.com/pfrederiksen/tg-messenger/internal/logger"
	"github.com/pfrederiksen/tg-messenger/internal/messenger"
	"github.com/pfrederiksen/tg-messenger/internal/notifier"
	"github.com/pfrederiksen/tg-messenger/internal/preferences"
	"github.com/pfrederiksen/tg-messenger/internal/settings"
	"github.com/pfrederiksen/tg-messenger/internal/storage"
	"github.com/pfrederiksen/tg-messenger/internal/telegram"
)

const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitSendFailed = 2
)

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configPath string
	dataDir    string
	backend    string
	format     string
	parseMode  string
	verbose    bool
	dryRun     bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tg-messenger",
		Short: "Send Telegram messages to saved contacts through your own bot",
		Long: `A small Telegram client that sends messages through a bot you own.
Contacts and the bot token are kept in a local record (a JSON file, SQLite,
or a private GitHub Gist); messages go out through the Bot API sendMessage call.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				writeMetrics(cmd.ErrOrStderr(), logger.GetMetricsSnapshot())
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Settings file (default "+settings.DefaultConfigPath+")")
	flags.StringVar(&opts.dataDir, "data-dir", settings.DefaultDataDir, "Data directory for the contacts record")
	flags.StringVar(&opts.backend, "backend", settings.BackendFile, "Storage backend: file, sqlite or gist")
	flags.StringVar(&opts.format, "format", "text", "Output format: text or json")
	flags.StringVar(&opts.parseMode, "parse-mode", "", "Telegram parse mode: empty or HTML")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print messages instead of sending them")

	cmd.AddCommand(
		newContactsCmd(opts),
		newTokenCmd(opts),
		newSendCmd(opts),
		newGistCmd(opts),
		newChatCmd(opts),
	)

	return cmd
}

// app is everything a command needs, built from flags and settings
type app struct {
	settings *settings.Settings
	store    *preferences.Store
	sender   messenger.Sender
	ctrl     *messenger.Controller
	format   OutputFormat
	verbose  bool
	dryRun   bool
	closer   io.Closer
}

// Close releases the storage backend
func (a *app) Close() {
	if a.closer == nil {
		return
	}
	if err := a.closer.Close(); err != nil {
		logger.Warn("Closing storage failed", logger.Fields{"error": err.Error()})
	}
}

// open resolves settings, opens the configured backend and loads the record
func (o *rootOptions) open(cmd *cobra.Command) (*app, error) {
	format := OutputFormat(strings.ToLower(o.format))
	if format != FormatText && format != FormatJSON {
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'json')", o.format)
	}

	s, err := o.resolveSettings(cmd)
	if err != nil {
		return nil, err
	}

	logger.SetDefault(logger.New(s.Level(), cmd.ErrOrStderr()))

	if o.verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Backend: %s\n", s.Backend)
		fmt.Fprintf(cmd.ErrOrStderr(), "Data directory: %s\n", s.DataDir)
	}

	backend, closer, err := openBackend(s)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	store := preferences.NewStore(backend, preferences.WithEncryptor(crypto.NewEncryptor(s.EncryptionKey)))
	store.Load()

	var sender messenger.Sender
	if o.dryRun {
		sender = telegram.NewDryRun(cmd.OutOrStdout())
	} else {
		sender = telegram.NewClient(
			telegram.WithBaseURL(s.Telegram.APIBaseURL),
			telegram.WithParseMode(s.Telegram.ParseMode),
		)
	}

	ctrl := messenger.New(store, sender,
		messenger.WithNotifier(notifier.NewWriterNotifier(cmd.ErrOrStderr())),
		messenger.WithParseMode(s.Telegram.ParseMode),
	)

	return &app{
		settings: s,
		store:    store,
		sender:   sender,
		ctrl:     ctrl,
		format:   format,
		verbose:  o.verbose,
		dryRun:   o.dryRun,
		closer:   closer,
	}, nil
}

// resolveSettings layers explicitly set flags over file and environment settings
func (o *rootOptions) resolveSettings(cmd *cobra.Command) (*settings.Settings, error) {
	s, err := settings.Discover(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		s.DataDir = o.dataDir
	}
	if flags.Changed("backend") {
		s.Backend = o.backend
	}
	if flags.Changed("parse-mode") {
		s.Telegram.ParseMode = o.parseMode
	}
	if o.verbose {
		s.LogLevel = "debug"
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// openBackend creates the Storage selected by s. The closer may be nil.
func openBackend(s *settings.Settings) (preferences.Storage, io.Closer, error) {
	switch s.Backend {
	case settings.BackendSQLite:
		db, err := storage.NewSQLite(s.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case settings.BackendGist:
		g, err := preferences.NewGistStorage(s.Gist.ID, s.Gist.GitHubToken, gistOptions(s)...)
		if err != nil {
			return nil, nil, err
		}
		return g, nil, nil
	default:
		fs, err := storage.New(s.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, nil, nil
	}
}

func gistOptions(s *settings.Settings) []preferences.GistOption {
	if s.Gist.APIURL == "" {
		return nil
	}
	return []preferences.GistOption{preferences.WithGistAPIURL(s.Gist.APIURL)}
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var sendErr *telegram.SendError
	if errors.As(err, &sendErr) {
		return ExitSendFailed
	}
	return ExitError
}

// Execute runs the CLI
func Execute() {
	err := NewRootCmd().Execute()
	logger.Default().Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
