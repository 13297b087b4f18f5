package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joelkehle/lease-audit/internal/ingest"
)

var (
	watchOutDir   string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Render a report whenever a lease lands in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutDir, "out", "o", "", "Directory for rendered reports (default: <dir>/reports)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period before a changed lease is analyzed")
}

func isLeaseFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".pdf", ".md":
		return !strings.HasSuffix(strings.ToLower(name), ".audit.pdf")
	}
	return false
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	out := watchOutDir
	if out == "" {
		out = filepath.Join(dir, "reports")
	}
	opts, err := reportOptions(cfg)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	extractor := ingest.New()
	pending := map[string]time.Time{}
	ticker := time.NewTicker(max(watchDebounce/2, 50*time.Millisecond))
	defer ticker.Stop()

	logger.Info("watching for leases", zap.String("dir", dir), zap.String("out", out))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isLeaseFile(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case now := <-ticker.C:
			for p, seen := range pending {
				if now.Sub(seen) < watchDebounce {
					continue
				}
				delete(pending, p)
				r, err := analyzeFile(ctx, extractor, p)
				if err != nil {
					logger.Warn("lease analysis failed", zap.String("path", p), zap.Error(err))
					continue
				}
				if err := writeReport(r, opts, filepath.Join(out, reportName(p))); err != nil {
					logger.Warn("report render failed", zap.String("path", p), zap.Error(err))
				}
			}
		}
	}
}
