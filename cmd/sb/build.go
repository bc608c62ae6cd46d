package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zpdzap/sitebuilder/internal/archive"
	"github.com/zpdzap/sitebuilder/internal/logging"
	"github.com/zpdzap/sitebuilder/internal/tui"
)

func buildCmd(opts *options) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Apply step files and run the project in the sandbox",
		Long: `Apply step files in order, write the project into the sandbox workdir,
then install dependencies and start the dev server. Console output is
streamed to stdout. With --wait the dev server keeps running until
interrupted; otherwise it is stopped as soon as it reports ready, which
makes build a smoke check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.stepFiles) == 0 {
				return errors.New("no step files given (use --steps)")
			}
			// Canceling ctx stops the spawned processes.
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			s, cleanup, err := newSession(ctx, opts, true)
			if err != nil {
				return err
			}
			defer cleanup()

			p := tui.NewPrinter(os.Stdout)
			p.Steps(s.Steps())

			followCtx, stopFollow := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				p.Follow(followCtx, s.Console(), 100*time.Millisecond)
				close(done)
			}()

			runErr := s.Start(ctx)
			if runErr == nil && wait {
				st, _ := s.Sandbox()
				logging.UserSuccess("Dev server running at %s (Ctrl-C to stop)", st.Address)
				<-ctx.Done()
			}
			stopFollow()
			<-done

			if st, err := s.Sandbox(); err == nil {
				p.Session(st)
			}
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			return nil
		},
	}
	cmd.Flags().AddFlagSet(opts.flagSet())
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "keep the dev server running until interrupted")
	return cmd
}

func exportCmd(opts *options) *cobra.Command {
	var dir, name string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Apply step files and write the project as a zip archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := newSession(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer cleanup()

			if s.Tree().Empty() {
				return errors.New("project is empty, nothing to export")
			}
			path, ok := s.Export(dir, name)
			if !ok {
				return errors.New("export failed")
			}
			logging.UserSuccess("Exported %d files to %s", len(s.Tree().Files()), path)
			return nil
		},
	}
	cmd.Flags().AddFlagSet(opts.flagSet())
	cmd.Flags().StringVarP(&dir, "output", "o", "", "output directory (default: archive.dir from config)")
	cmd.Flags().StringVarP(&name, "name", "n", "", fmt.Sprintf("archive name (default %q)", archive.DefaultName))
	return cmd
}

func treeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the project tree produced by step files",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := newSession(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Print(tui.PlainFileTree(s.Tree()))
			t := s.Tree()
			fmt.Printf("\n%d files, fingerprint %s\n", len(t.Files()), t.Fingerprint()[:12])
			return nil
		},
	}
	cmd.Flags().AddFlagSet(opts.flagSet())
	return cmd
}

func catCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Print one file of the project produced by step files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := newSession(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer cleanup()

			n, ok := s.Tree().Lookup(args[0])
			if !ok {
				return fmt.Errorf("no such file: %s", args[0])
			}
			if n.IsDir() {
				return fmt.Errorf("%s is a folder", args[0])
			}

			profile := termenv.Ascii
			if term.IsTerminal(int(os.Stdout.Fd())) {
				profile = termenv.NewOutput(os.Stdout).Profile
			}
			fmt.Print(tui.Highlight(n.Name, n.Content, profile))
			if n.Content != "" && n.Content[len(n.Content)-1] != '\n' {
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().AddFlagSet(opts.flagSet())
	return cmd
}
