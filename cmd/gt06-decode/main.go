package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"locdecoder/internal/config"
	"locdecoder/internal/logger"
	"locdecoder/internal/protocol/gt06"
)

var errDecodeFailed = errors.New("one or more packets failed to decode")

type options struct {
	format   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "gt06-decode [hex...]",
		Short: "Decode GT06 location packets",
		Long: "gt06-decode decodes 0x22 location packets given as hex strings.\n" +
			"Without arguments it reads one hex packet per line from stdin.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "json" && opts.format != "text" {
				return fmt.Errorf("unknown format %q (want json or text)", opts.format)
			}
			zl := logger.New(config.LogConfig{Level: opts.logLevel})
			defer zl.Sync()

			if len(args) == 0 {
				return runStream(cmd.InOrStdin(), cmd.OutOrStdout(), opts, zl)
			}
			return runArgs(args, cmd.OutOrStdout(), opts, zl)
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "json", "output format: json or text")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level for decode diagnostics")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func runArgs(args []string, out io.Writer, opts *options, zl *zap.Logger) error {
	failed := false
	for _, arg := range args {
		if !decodeOne(arg, out, opts, zl) {
			failed = true
		}
	}
	if failed {
		return errDecodeFailed
	}
	return nil
}

func runStream(in io.Reader, out io.Writer, opts *options, zl *zap.Logger) error {
	scanner := bufio.NewScanner(in)
	failed := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !decodeOne(line, out, opts, zl) {
			failed = true
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failed {
		return errDecodeFailed
	}
	return nil
}

func decodeOne(hexPacket string, out io.Writer, opts *options, zl *zap.Logger) bool {
	report, err := gt06.DecodeHex(hexPacket)
	if err != nil {
		zl.Error("Failed to decode packet",
			zap.String("packet", hexPacket),
			zap.String("reason", gt06.Reason(err)),
			zap.Error(err))
		return false
	}

	if opts.format == "text" {
		fmt.Fprintln(out, formatText(report))
		return true
	}
	data, err := json.Marshal(report)
	if err != nil {
		zl.Error("Failed to encode report", zap.Error(err))
		return false
	}
	fmt.Fprintln(out, string(data))
	return true
}

func formatText(r *gt06.LocationReport) string {
	acc := "off"
	if r.ACC {
		acc = "on"
	}
	return fmt.Sprintf("%s lat=%.6f lon=%.6f speed=%dkm/h course=%d sats=%d acc=%s",
		r.Timestamp, r.Latitude, r.Longitude, r.Speed, r.Course, r.Satellites, acc)
}
