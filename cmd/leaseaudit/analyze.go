package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joelkehle/lease-audit/internal/analysis"
	"github.com/joelkehle/lease-audit/internal/config"
	"github.com/joelkehle/lease-audit/internal/ingest"
	"github.com/joelkehle/lease-audit/internal/lease"
	"github.com/joelkehle/lease-audit/internal/report"
)

var (
	analyzeJSON   bool
	analyzeOutDir string
	analyzeJobs   int
	renderOutput  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [lease files...]",
	Short: "Analyze lease documents and print the findings",
	Long: `Extracts rent and CAM/NNN terms from each lease and prints a summary.
Use --json for the machine-readable analysis and --out to also write a PDF
report per lease.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var renderCmd = &cobra.Command{
	Use:   "render [lease file]",
	Short: "Render the PDF report for one lease",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the analysis as JSON")
	analyzeCmd.Flags().StringVarP(&analyzeOutDir, "out", "o", "", "Directory to write PDF reports into")
	analyzeCmd.Flags().IntVarP(&analyzeJobs, "jobs", "j", 4, "Number of leases analyzed in parallel")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output PDF path (default: <lease>.audit.pdf)")
}

type analyzed struct {
	Path   string
	Result analysis.Result
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	results := make([]analyzed, len(args))
	extractor := ingest.New()
	opts, err := reportOptions(cfg)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(analyzeJobs, 1))
	for i, p := range args {
		g.Go(func() error {
			r, err := analyzeFile(ctx, extractor, p)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			results[i] = analyzed{Path: p, Result: r}
			if analyzeOutDir == "" {
				return nil
			}
			out := filepath.Join(analyzeOutDir, reportName(p))
			return writeReport(r, opts, out)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0].Result)
		}
		byPath := make(map[string]analysis.Result, len(results))
		for _, a := range results {
			byPath[a.Path] = a.Result
		}
		return enc.Encode(byPath)
	}
	for _, a := range results {
		if err := printSummary(w, a); err != nil {
			return err
		}
	}
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	opts, err := reportOptions(cfg)
	if err != nil {
		return err
	}
	r, err := analyzeFile(cmd.Context(), ingest.New(), args[0])
	if err != nil {
		return err
	}
	out := renderOutput
	if out == "" {
		out = filepath.Join(filepath.Dir(args[0]), reportName(args[0]))
	}
	if err := writeReport(r, opts, out); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func analyzeFile(ctx context.Context, extractor *ingest.Extractor, p string) (analysis.Result, error) {
	blob, err := os.ReadFile(p)
	if err != nil {
		return analysis.Result{}, err
	}
	text, err := extractor.Text(ctx, filepath.Base(p), blob)
	if err != nil {
		return analysis.Result{}, err
	}
	logger.Debug("lease text extracted", zap.String("path", p), zap.String("method", text.Method), zap.Bool("truncated", text.Truncated))
	return analysis.Analyze(text.Text), nil
}

func writeReport(r analysis.Result, opts report.Options, out string) error {
	pdf, tr, err := report.Render(r, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		return err
	}
	logger.Info("report written", zap.String("path", out), zap.Int("pages", tr.Pages), zap.Int("bytes", len(pdf)))
	return nil
}

func reportName(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".audit.pdf"
}

func reportOptions(c *config.Config) (report.Options, error) {
	opts := report.DefaultOptions()
	if c.Report.Font != "" {
		opts.Fonts.Family = c.Report.Font
	}
	if err := opts.Fonts.Validate(); err != nil {
		return report.Options{}, err
	}
	return opts, nil
}

var (
	badgeBase = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#FFFFFF"))
	pathStyle = lipgloss.NewStyle().Faint(true)
)

func riskBadge(level lease.RiskLevel) string {
	color := "#15803D"
	switch level {
	case lease.RiskHigh:
		color = "#B91C1C"
	case lease.RiskMedium:
		color = "#B45309"
	}
	return badgeBase.Background(lipgloss.Color(color)).Render(string(level) + " RISK")
}

func printSummary(w io.Writer, a analyzed) error {
	fmt.Fprintf(w, "%s %s\n", riskBadge(a.Result.RiskLevel), pathStyle.Render(a.Path))
	md := analysis.BuildMarkdown(a.Result, "", time.Now())
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		_, err = io.WriteString(w, md)
		return err
	}
	out, err := renderer.Render(md)
	if err != nil {
		_, err = io.WriteString(w, md)
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
