package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"qadmin/internal/api"
	"qadmin/internal/config"
	"qadmin/internal/format"
	"qadmin/internal/log"
	"qadmin/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	BaseURL    string
	Token      string
	Format     string
	PrettyJSON bool
	Verbose    bool
	LogFile    string
	PageSize   int

	cfg       config.Config
	logCloser io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "qadmin",
		Short:        "Rejection code admin (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  qadmin

  # Scriptable commands
  qadmin list --sort name --filter code=^C1
  qadmin create --code C10 --name "Surface dent"
  qadmin import codes.csv --test-mode

  # Local reference backend
  qadmin serve --db ./qadmin.sqlite
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := app.load(cmd); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		app.closeLog()
		return nil
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigPath, "config", envOr("QADMIN_CONFIG", ""), "Config file (default ~/.qadmin.yaml)")
	pf.StringVar(&app.BaseURL, "base-url", "", "API base URL, e.g. http://127.0.0.1:8080/api/v1")
	pf.StringVar(&app.Token, "token", "", "Bearer token sent to the API")
	pf.StringVar(&app.Format, "format", "", "Output format ("+strings.Join(format.Names, "|")+")")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	pf.BoolVar(&app.Verbose, "verbose", false, "Debug logging")
	pf.StringVar(&app.LogFile, "log-file", "", "Append log output to this file")
	pf.IntVar(&app.PageSize, "page-size", 0, "Rows per page")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newCreateCmd(app))
	cmd.AddCommand(newUpdateCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// load reads the config file and applies explicitly set persistent flags on top.
func (app *App) load(cmd *cobra.Command) error {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = strings.TrimRight(strings.TrimSpace(app.BaseURL), "/")
	}
	if flags.Changed("token") {
		cfg.Token = strings.TrimSpace(app.Token)
	}
	if flags.Changed("format") {
		cfg.Format = strings.ToLower(strings.TrimSpace(app.Format))
	}
	if flags.Changed("verbose") {
		cfg.Verbose = app.Verbose
	}
	if flags.Changed("page-size") {
		cfg.PageSize = app.PageSize
	}
	if flags.Changed("log-file") {
		if cfg.LogFile, err = config.ExpandPath(app.LogFile); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.cfg = cfg

	log.SetVerbose(cfg.Verbose)
	switch {
	case cfg.LogFile != "":
		c, err := log.OpenFile(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		app.logCloser = c
	case cmd == cmd.Root():
		// The TUI owns the terminal.
		log.Discard()
	default:
		log.SetOutput(cmd.ErrOrStderr())
	}
	if cfg.File != "" {
		log.Debugf("config: %s", cfg.File)
	}
	return nil
}

func (app *App) closeLog() {
	if app.logCloser != nil {
		_ = app.logCloser.Close()
		app.logCloser = nil
	}
}

func (app *App) client() *api.RejectionCodes {
	return api.New(app.cfg.BaseURL, app.cfg.Token, app.cfg.Timeout).RejectionCodes()
}

func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	wd, _ := os.Getwd()
	err := tui.Run(ctx, tui.Options{
		Service:   app.client(),
		Perms:     app.cfg.Checker(),
		PageSize:  app.cfg.PageSize,
		ExportDir: wd,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.cfg.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
