package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"normalizer/internal/server"
)

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "normalizer",
		Short:         "Adversarial text normalization and spelling correction",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "normalizer.yaml", "path to the YAML config file")

	root.AddCommand(newServeCmd(&configPath), newNormalizeCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the normalization HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := build(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return server.New(a.svc, a.enc, a.logger).Run(ctx, a.cfg.HTTPAddr)
		},
	}
}

func newNormalizeCmd(configPath *string) *cobra.Command {
	var noCorrect bool
	cmd := &cobra.Command{
		Use:   "normalize [text...]",
		Short: "Normalize each argument, or each line of stdin, to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			enabled := a.cfg.CorrectionEnabled && !noCorrect
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				for _, arg := range args {
					fmt.Fprintln(out, a.svc.NormalizeWith(arg, enabled))
				}
				return nil
			}
			return normalizeLines(cmd.InOrStdin(), out, func(s string) string {
				return a.svc.NormalizeWith(s, enabled)
			})
		},
	}
	cmd.Flags().BoolVar(&noCorrect, "no-correct", false, "sanitize only")
	return cmd
}

func normalizeLines(r io.Reader, w io.Writer, normalize func(string) string) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	bw := bufio.NewWriter(w)
	for sc.Scan() {
		bw.WriteString(normalize(strings.TrimRight(sc.Text(), "\r")))
		bw.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return bw.Flush()
}
