package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joelkehle/lease-audit/internal/audit"
	"github.com/joelkehle/lease-audit/internal/blobstore"
	"github.com/joelkehle/lease-audit/internal/config"
	"github.com/joelkehle/lease-audit/internal/httpapi"
	"github.com/joelkehle/lease-audit/internal/ingest"
	"github.com/joelkehle/lease-audit/internal/recordstore"
	"github.com/joelkehle/lease-audit/internal/summary"
	"github.com/joelkehle/lease-audit/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lease audit HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	blobs, signed, err := openBlobs(ctx, cfg)
	if err != nil {
		return err
	}
	records, err := openRecords(ctx, cfg)
	if err != nil {
		return err
	}
	defer records.Close()

	opts, err := reportOptions(cfg)
	if err != nil {
		return err
	}
	svc := audit.NewService(blobs, records, ingest.New(), audit.Options{
		Report: opts,
		URLTTL: cfg.GetURLTTL(),
		Logger: logger.Named("audit"),
	})
	apiOpts := httpapi.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		WebhookSecret:  cfg.Server.WebhookSecret,
		SummaryPDF:     summary.NewChromiumRenderer(cfg.Report.ChromePath, summary.DefaultPrintOptions()),
		Logger:         logger.Named("http"),
	}
	if signed != nil {
		apiOpts.Blobs = signed
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: httpapi.NewServer(svc, apiOpts)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("lease audit listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("blobs", cfg.Blobs.Backend),
		zap.String("records", cfg.Records.Backend))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openBlobs returns the configured store and, for the filesystem backend,
// the same store as the verifier behind /blobs/ signed URLs.
func openBlobs(ctx context.Context, c *config.Config) (blobstore.Store, *blobstore.FSStore, error) {
	switch c.Blobs.Backend {
	case "s3":
		s, err := blobstore.NewS3StoreFromEnv(ctx, c.AWS.Region, c.Blobs.Bucket, c.Blobs.Prefix)
		return s, nil, err
	default:
		key := c.Blobs.SigningKey
		if key == "" {
			return nil, nil, fmt.Errorf("blobs.signing_key (or LEASEAUDIT_SIGNING_KEY) is required for the fs backend")
		}
		s, err := blobstore.NewFSStore(c.Blobs.Root, c.Server.PublicURL, []byte(key))
		return s, s, err
	}
}

func openRecords(ctx context.Context, c *config.Config) (recordstore.Store, error) {
	switch c.Records.Backend {
	case "memory":
		return recordstore.NewMemoryStore(), nil
	case "sqlite":
		return recordstore.NewSQLiteStore(c.Records.Path)
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return recordstore.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), c.Records.Table), nil
	default:
		return recordstore.NewFileStore(c.Records.Path)
	}
}
