package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zpdzap/sitebuilder/internal/agent"
	"github.com/zpdzap/sitebuilder/internal/config"
	"github.com/zpdzap/sitebuilder/internal/logging"
	"github.com/zpdzap/sitebuilder/internal/sandbox"
	"github.com/zpdzap/sitebuilder/internal/session"
	"github.com/zpdzap/sitebuilder/internal/tui"
)

// options are the flags shared by every command that builds a session.
type options struct {
	verbose   bool
	logJSON   bool
	stepFiles []string
	runtime   string
	workdir   string
	install   string
	run       string
	agentCmd  string
}

func (o *options) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("session", pflag.ContinueOnError)
	fs.StringArrayVarP(&o.stepFiles, "steps", "s", nil, "step batch file to apply (repeatable, applied in order)")
	fs.StringVar(&o.runtime, "runtime", "", "sandbox runtime: local or docker")
	fs.StringVar(&o.workdir, "workdir", "", "directory the project is materialized into")
	fs.StringVar(&o.install, "install", "", "install command (default: detected from lockfiles)")
	fs.StringVar(&o.run, "run", "", "dev server command (default: detected from package.json)")
	fs.StringVar(&o.agentCmd, "agent", "", "instruction source command for /prompt")
	return fs
}

func main() {
	opts := &options{}
	root := &cobra.Command{
		Use:           "sb",
		Short:         "sitebuilder: apply build steps to a project tree and run it in a sandbox",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "write logs as JSON")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.Setup(opts.verbose, opts.logJSON, os.Stderr)
	}
	root.Flags().AddFlagSet(opts.flagSet())

	root.AddCommand(initCmd())
	root.AddCommand(buildCmd(opts))
	root.AddCommand(exportCmd(opts))
	root.AddCommand(treeCmd(opts))
	root.AddCommand(catCmd(opts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logging.UserError("%v", err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	var useTOML bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize sitebuilder in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir, err := os.Getwd()
			if err != nil {
				return err
			}

			if config.Exists(projectDir) {
				logging.UserInfo("sitebuilder already initialized in this directory.")
				return nil
			}

			cfg := config.Default(filepath.Base(projectDir))
			if useTOML {
				// Save keeps whichever format is already on disk.
				dir := config.ConfigPath(projectDir)
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("creating config dir: %w", err)
				}
				if err := os.WriteFile(filepath.Join(dir, config.TOMLFile), nil, 0o644); err != nil {
					return fmt.Errorf("creating config: %w", err)
				}
			}
			if err := config.Save(projectDir, cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}

			if err := updateGitignore(projectDir); err != nil {
				return fmt.Errorf("updating .gitignore: %w", err)
			}

			name := config.ConfigFile
			if useTOML {
				name = config.TOMLFile
			}
			logging.UserSuccess("Initialized sitebuilder for %s", cfg.Project)
			fmt.Printf("  Config:  %s/%s\n", config.Dir, name)
			fmt.Printf("  Workdir: %s\n", cfg.Sandbox.Workdir)
			fmt.Println("\nRun `sb` to launch the dashboard.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&useTOML, "toml", false, "write config.toml instead of config.yaml")
	return cmd
}

func updateGitignore(projectDir string) error {
	gitignorePath := filepath.Join(projectDir, ".gitignore")

	entries := []string{
		config.Dir + "/" + config.WorkDir + "/",
		config.Dir + "/" + config.LogFile,
	}

	existing, _ := os.ReadFile(gitignorePath)
	content := string(existing)

	var toAdd []string
	for _, entry := range entries {
		if !strings.Contains(content, entry) {
			toAdd = append(toAdd, entry)
		}
	}

	if len(toAdd) == 0 {
		return nil
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	content += "\n# sitebuilder\n"
	for _, entry := range toAdd {
		content += entry + "\n"
	}

	return os.WriteFile(gitignorePath, []byte(content), 0o644)
}

// loadConfig reads the project config, falling back to defaults, and
// applies command-line overrides.
func loadConfig(opts *options) (string, *config.Config, error) {
	projectDir, err := os.Getwd()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.LoadOrDefault(projectDir)
	if err != nil {
		return "", nil, err
	}
	if opts.runtime != "" {
		cfg.Sandbox.Runtime = opts.runtime
	}
	if opts.workdir != "" {
		cfg.Sandbox.Workdir = opts.workdir
	}
	if opts.install != "" {
		cfg.Sandbox.Install = opts.install
	}
	if opts.run != "" {
		cfg.Sandbox.Run = opts.run
	}
	if opts.agentCmd != "" {
		cfg.Agent.Command = opts.agentCmd
	}
	return projectDir, cfg, nil
}

// newSandbox builds the configured sandbox. The cleanup func releases
// container resources.
func newSandbox(projectDir string, cfg *config.Config) (sandbox.Sandbox, func(), error) {
	workdir := cfg.WorkdirPath(projectDir)
	switch cfg.Sandbox.Runtime {
	case config.RuntimeDocker:
		d := sandbox.NewDocker(workdir, sandbox.DockerOptions{
			Name:  cfg.Project,
			Image: cfg.Sandbox.Image,
			Ports: cfg.Sandbox.Ports,
			Env:   cfg.Sandbox.Env,
		})
		return d, func() {
			if err := d.Close(); err != nil {
				logging.Warn("removing container", "error", err)
			}
		}, nil
	case config.RuntimeLocal, "":
		l := sandbox.NewLocal(workdir)
		for k, v := range cfg.Sandbox.Env {
			l.Env = append(l.Env, k+"="+v)
		}
		return l, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown sandbox runtime %q (want local or docker)", cfg.Sandbox.Runtime)
	}
}

// newSession builds a session with the configured sandbox and source, and
// applies the step files from opts.
func newSession(ctx context.Context, opts *options, withSandbox bool) (*session.Session, func(), error) {
	projectDir, cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	sopts := session.Options{Config: cfg}
	cleanup := func() {}
	if withSandbox {
		sb, done, err := newSandbox(projectDir, cfg)
		if err != nil {
			return nil, nil, err
		}
		sopts.Sandbox = sb
		cleanup = done
	}
	if cfg.Agent.Command != "" {
		sopts.Source = &agent.Command{Line: cfg.Agent.Command, Dir: projectDir}
	}

	s := session.New(sopts)
	if _, err := s.LoadSteps(ctx, opts.stepFiles...); err != nil {
		cleanup()
		return nil, nil, err
	}
	return s, cleanup, nil
}

func runTUI(ctx context.Context, opts *options) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return err
	}

	// Logs go to a file so they don't corrupt the alt screen.
	logDir := config.ConfigPath(projectDir)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", logDir, err)
	}
	logFile, err := os.OpenFile(filepath.Join(logDir, config.LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	logging.Setup(opts.verbose, opts.logJSON, logFile)

	s, cleanup, err := newSession(ctx, opts, true)
	if err != nil {
		return err
	}
	defer cleanup()

	return tui.Run(ctx, s)
}
