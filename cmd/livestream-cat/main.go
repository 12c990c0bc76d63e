package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oss-livestream/livestream"
	"github.com/oss-livestream/livestream/internal/config"
	"github.com/oss-livestream/livestream/internal/logging"
)

var (
	cfg            = config.New()
	bufferSizeFlag uint64
	seekFlag       int64
	timeoutFlag    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "livestream-cat [url]",
	Short: "Pull a live HTTP byte-range stream into a seekable buffer and copy it to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStream(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.Flags().Uint64VarP(&bufferSizeFlag, "buffer", "b", cfg.BufferSize(), "Ring buffer size in bytes")
	rootCmd.Flags().Int64VarP(&seekFlag, "seek", "s", -1, "Seek to this server-absolute byte offset once streaming starts (-1 disables)")
	rootCmd.Flags().DurationVarP(&timeoutFlag, "read-timeout", "t", cfg.ReadTimeout(), "Per-read timeout before giving up and retrying")
}

func main() {
	log := logging.Init(cfg.LogFile())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.SetContext(ctx)
	if err := rootCmd.Execute(); err != nil {
		log.Error("livestream-cat exited with error", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runStream(ctx context.Context, url string) error {
	log := slog.Default()

	s := livestream.New(bufferSizeFlag)

	startPos, err := s.Start(ctx, url)
	if err != nil {
		return fmt.Errorf("livestream-cat: start failed: %w", err)
	}
	log.Info("stream started", "url", url, "position", startPos)
	defer func() {
		final := s.Stop()
		log.Info("stream stopped", "position", final)
	}()

	if seekFlag >= 0 {
		pos, err := s.Seek(ctx, uint64(seekFlag))
		if err != nil {
			return fmt.Errorf("livestream-cat: seek failed: %w", err)
		}
		log.Info("seeked", "target", seekFlag, "position", pos)
	}

	buf := make([]byte, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		n, err := s.Read(buf, timeoutFlag)
		if err != nil {
			if errors.Is(err, livestream.ErrReadTooLarge) {
				return fmt.Errorf("livestream-cat: %w", err)
			}
			return err
		}
		if n == 0 {
			continue // timed out with no data yet; keep polling
		}
		if _, werr := os.Stdout.Write(buf[:n]); werr != nil {
			if errors.Is(werr, io.ErrClosedPipe) {
				return nil
			}
			return fmt.Errorf("livestream-cat: stdout write failed: %w", werr)
		}
	}
}
