// Command catch attaches this machine to a Catch onboarding session and
// uploads the project's source files, encrypted end to end.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catchcli/internal/api"
	"catchcli/internal/config"
	"catchcli/internal/e2ee"
	"catchcli/internal/gitinfo"
	"catchcli/internal/logging"
	"catchcli/internal/orchestrator"
	"catchcli/internal/pipeline"
	"catchcli/internal/scanner"
	"catchcli/internal/selector"
	"catchcli/internal/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

// cli holds flag values and the state PersistentPreRunE builds from them.
type cli struct {
	// Global flags
	cfgPath string
	verbose bool
	tempDir string
	noTTY   bool

	// Run flags
	owner string
	repo  string
	all   bool
	dir   string
	wait  time.Duration

	stdin  *os.File
	cfg    *config.Config
	logger *zap.Logger
	styles ui.Styles
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(int(code))
}

// execute runs the command line and maps the outcome to an exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) pipeline.ExitCode {
	c := &cli{stdin: os.Stdin}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	code := pipeline.ExitCodeFor(err)
	if err != nil && code != pipeline.ExitOK {
		fmt.Fprintln(stderr, c.styles.Error.Render("Error: "+err.Error()))
	}
	return code
}

func (c *cli) rootCmd() *cobra.Command {
	c.styles = ui.DefaultStyles()

	root := &cobra.Command{
		Use:   "catch",
		Short: "Attach this project to a Catch onboarding session",
		Long: `catch finds the onboarding session started in your browser, attaches
this CLI to it, and uploads the source files the server asks for.

File contents are encrypted on this machine with a fresh AES-256 key;
only the key, wrapped with the session's RSA-4096 public key, is sent
alongside them.

Exit codes:
   0  success or canceled
  -1  no session found          -6  handshake failed
  -2  multiple sessions found   -7  scan or encryption failed
  -3  local I/O error           -8  candidate analysis failed
  -4  session already claimed   -9  upload failed
  -5  status check failed        1  usage or configuration error`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
		RunE: c.runCatch,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "Config file (default: <user config dir>/catch/config.yaml)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&c.tempDir, "temp-dir", "", "Directory holding session markers (default: system temp dir)")
	pf.BoolVar(&c.noTTY, "no-tty", false, "Disable raw mode, spinners and interactive prompts")

	f := root.Flags()
	f.StringVar(&c.owner, "owner", "", "Repository owner; skips the repository prompt with --repo")
	f.StringVar(&c.repo, "repo", "", "Repository name; skips the repository prompt with --owner")
	f.BoolVar(&c.all, "all", false, "Upload every candidate without the selection table")
	f.StringVar(&c.dir, "dir", "", "Project directory to scan (default: current directory)")
	f.DurationVar(&c.wait, "wait", 0, "Wait for a session marker to appear (bare --wait uses session.wait_timeout)")
	f.Lookup("wait").NoOptDefVal = "0s"

	root.AddCommand(
		c.sessionsCmd(),
		c.scanCmd(),
		c.statusCmd(),
		c.configCmd(),
		versionCmd(),
	)
	return root
}

// setup loads configuration, applies global flags and starts logging.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath())
	if err != nil {
		return err
	}
	if c.tempDir != "" {
		cfg.Session.TempDir = c.tempDir
	}
	if c.noTTY {
		cfg.UI.NoTTY = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	logger, err := logging.Initialize(logging.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Format:  cfg.Logging.Format,
		Verbose: c.verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger
	c.styles = ui.NewStyles(ui.DetectTheme())

	logger.Info("catch starting",
		zap.String("version", version),
		zap.String("command", cmd.CommandPath()),
		zap.String("base_url", cfg.BaseURL()))
	return nil
}

// =============================================================================
// RUN
// =============================================================================

func (c *cli) runCatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	padding, err := e2ee.ParsePadding(c.cfg.Crypto.RSAPadding)
	if err != nil {
		return err
	}
	dir, err := c.projectDir()
	if err != nil {
		return err
	}

	term := c.terminal(out)
	interactive := term.Interactive()

	deps := pipeline.Deps{
		Client: c.apiClient(),
		Orchestrator: orchestrator.New(term,
			orchestrator.WithTickInterval(c.cfg.GetTickInterval()),
			orchestrator.WithStyles(c.styles)),
		RepoInfo: c.repoInfo(interactive),
		Out:      out,
		Styles:   &c.styles,
	}
	if interactive && !c.all {
		deps.Select = func(ctx context.Context, files []scanner.CodeFile) ([]scanner.CodeFile, error) {
			return selector.Select(ctx, files, selector.Options{
				Input:     c.stdin,
				Output:    out,
				Preselect: c.cfg.UI.Preselect,
				Styles:    &c.styles,
			})
		}
	}

	res, err := pipeline.New(deps, pipeline.Options{
		TempDir: c.cfg.TempDir(),
		Dir:     dir,
		Padding: padding,
		Scan: scanner.Options{
			MaxConcurrency: c.cfg.Scan.MaxConcurrency,
			IgnoreDirs:     c.cfg.Scan.IgnoreDirs,
		},
		PollInterval:    c.cfg.GetPollInterval(),
		AnalysisTimeout: c.cfg.GetAnalysisTimeout(),
		Wait:            c.waitFor(cmd),
	}).Run(ctx)
	if err != nil {
		return err
	}

	if len(res.Uploaded) > 0 {
		fmt.Fprintln(out, c.styles.Success.Render(fmt.Sprintf(
			"✅ Uploaded %d of %d files to session %s (%s).",
			len(res.Uploaded), res.Scanned, res.SessionID, res.Repo)))
	}
	return nil
}

// waitFor returns how long to wait for a marker; zero disables waiting.
func (c *cli) waitFor(cmd *cobra.Command) time.Duration {
	if !cmd.Flags().Changed("wait") {
		return 0
	}
	if c.wait > 0 {
		return c.wait
	}
	return c.cfg.GetWaitTimeout()
}

func (c *cli) projectDir() (string, error) {
	if c.dir != "" {
		return c.dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

func (c *cli) apiClient() *api.Client {
	ua := c.cfg.API.UserAgent
	if ua == "" {
		ua = "catch-cli"
	}
	return api.NewClient(api.Config{
		BaseURL:   c.cfg.BaseURL(),
		Timeout:   c.cfg.GetAPITimeout(),
		UserAgent: ua + "/" + version,
	})
}

// terminal picks raw-mode progress on a TTY and plain lines otherwise.
func (c *cli) terminal(out io.Writer) orchestrator.Terminal {
	if c.cfg.UI.NoTTY || !orchestrator.IsTerminal(c.stdin) {
		return orchestrator.PlainTerminal{Out: out}
	}
	return orchestrator.NewStdTerminal(c.stdin, out)
}

// repoInfo resolves the repository from flags, then .git/config, then the
// confirmation form when interactive.
func (c *cli) repoInfo(interactive bool) pipeline.RepoInfoFunc {
	return func(ctx context.Context, dir string) (gitinfo.RepoInfo, error) {
		if c.owner != "" && c.repo != "" {
			return gitinfo.RepoInfo{Owner: c.owner, Name: c.repo}, nil
		}

		defaults, gitErr := gitinfo.FromDir(dir)
		if gitErr != nil {
			c.logger.Warn("could not read origin remote", zap.String("dir", dir), zap.Error(gitErr))
		}
		if c.owner != "" {
			defaults.Owner = c.owner
		}
		if c.repo != "" {
			defaults.Name = c.repo
		}

		if interactive {
			return gitinfo.Prompt(ctx, defaults, gitinfo.PromptOptions{Input: c.stdin, Styles: &c.styles})
		}
		if !defaults.Valid() {
			msg := "cannot determine repository; pass --owner and --repo"
			if gitErr != nil {
				return gitinfo.RepoInfo{}, fmt.Errorf("%s: %w", msg, gitErr)
			}
			return gitinfo.RepoInfo{}, errors.New(msg)
		}
		return defaults, nil
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the catch version",
		Args:  cobra.NoArgs,
		// No config or logging needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "catch %s\n", version)
		},
	}
}
