package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dpshade/pocket-placeholders/internal/api"
	"github.com/dpshade/pocket-placeholders/internal/cli"
	"github.com/dpshade/pocket-placeholders/internal/config"
	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/service"
	"github.com/dpshade/pocket-placeholders/internal/session"
	"github.com/dpshade/pocket-placeholders/internal/ui"
)

var version = "0.1.0"

const longHelp = `pocket-placeholders - Placeholder registry and substitution

Without a command the interactive editor starts: compose text, insert placeholders
from the panel and preview the substituted result.

COMMANDS:
    list, ls           List registered placeholders
    owners             List placeholder owners
    search <query>     Fuzzy search placeholders
    render, substitute Replace placeholders with current values
    copy               Render and copy to the clipboard
    values             Show current placeholder values
    lint               Report unknown placeholders
    users              Manage user profiles
    tour               Welcome tour state
    packs              List loaded placeholder packs
    help               Show CLI command help

EXAMPLES:
    pocket-placeholders                                   # Start interactive mode
    pocket-placeholders --init                            # Initialize the library
    pocket-placeholders --serve --port 9000               # Start the HTTP API
    pocket-placeholders --user ada render 'Hi ${USER_FIRST_NAME}'
    pocket-placeholders list --format table

STORAGE:
    Default directory: ~/.pocket-placeholders
    Override with: POCKET_PLACEHOLDERS_ROOT_DIR=<path> or root_dir in the config file`

type options struct {
	serve      bool
	port       int
	initLib    bool
	user       string
	configPath string
	verbose    bool
	noTour     bool
	version    bool
}

func registerFlags(flags *pflag.FlagSet, opts *options) {
	flags.BoolVar(&opts.serve, "serve", false, "Start the HTTP API server")
	flags.IntVar(&opts.port, "port", 0, "Port for the API server (default from config, 8080)")
	flags.BoolVar(&opts.initLib, "init", false, "Initialize the placeholder library")
	flags.StringVarP(&opts.user, "user", "u", "", "User placeholders are resolved for")
	flags.StringVar(&opts.configPath, "config", "", "Path to the YAML configuration file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Show error details")
	flags.BoolVar(&opts.noTour, "no-tour", false, "Do not show the welcome tour")
	flags.BoolVar(&opts.version, "version", false, "Print version information")

	// Flags after the command name belong to the command
	flags.SetInterspersed(false)
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "pocket-placeholders [flags] [command]",
		Short:         "Placeholder registry and substitution",
		Long:          longHelp,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}
	cmd.SetOut(os.Stdout)
	registerFlags(cmd.Flags(), opts)
	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	if opts.version {
		fmt.Fprintf(cmd.OutOrStdout(), "pocket-placeholders version %s\n", version)
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = opts.port
	}
	if opts.noTour {
		cfg.UI.Tour = false
	}

	svc, err := service.New(service.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	user := models.NewUserID(opts.user)
	if user.IsZero() {
		user = svc.DefaultUser()
	}

	if opts.initLib {
		if err := svc.InitLibrary(); err != nil {
			return fmt.Errorf("error initializing library: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized Pocket Placeholders library in %s\n", svc.BaseDir())
		return nil
	}

	if opts.serve {
		return serve(svc, cfg)
	}

	if len(args) > 0 {
		ctx := context.Background()
		if !user.IsZero() {
			ctx = session.WithUser(ctx, user)
		}
		cliHandler := cli.NewCLI(svc).WithContext(ctx).WithWordWrap(cfg.UI.WordWrap)
		cliHandler.SetVerbose(opts.verbose)
		return cliHandler.ExecuteCommand(args)
	}

	model, err := ui.NewModel(svc, ui.Options{
		User:     user,
		ShowTour: cfg.UI.Tour,
		WordWrap: cfg.UI.WordWrap,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// serve runs the API until interrupted
func serve(svc *service.Service, cfg config.Config) error {
	server := api.NewAPIServer(svc, cfg.Server.Port)
	server.SetRateLimit(cfg.Server.RateLimit, cfg.Server.Burst)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
