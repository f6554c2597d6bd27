// Command introspect connects to a MySQL/TiDB database, infers its
// relationship graph, and prints a summary of every source and the
// relationships resolved onto it.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"schemarelate"
	"schemarelate/internal/catalog"
	"schemarelate/internal/config"
	"schemarelate/internal/logging"
	"schemarelate/internal/schema"
)

// Version and Commit are set at build time via -ldflags "-X main.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)

func main() {
	if err := run(); err != nil {
		slog.Error("introspect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	pflag.Bool("version", false, "Print version and exit")
	pflag.String("log-level", "info", "Log level (debug, info, warn, error)")
	pflag.String("log-format", "text", "Log format (text, json)")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if showVersion, _ := pflag.CommandLine.GetBool("version"); showVersion {
		fmt.Printf("introspect %s (%s)\n", Version, Commit)
		return nil
	}

	logLevel, _ := pflag.CommandLine.GetString("log-level")
	logFormat, _ := pflag.CommandLine.GetString("log-format")
	logger := logging.NewLogger(logging.Config{Level: logLevel, Format: logFormat})
	slog.SetDefault(logger.Logger)

	if result := cfg.Validate(); result.HasErrors() {
		return result
	}

	tp, err := newTracerProvider()
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	otel.SetTracerProvider(tp)
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	opts, err := buildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	opts.IsResultClassMethod = isReservedClassMethod

	ctx := context.Background()

	db, err := sql.Open("mysql", cfg.Database.BuildDSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	schemaName := cfg.Options.DBSchema
	if schemaName == "" {
		schemaName = cfg.Database.Database
	}
	cat := catalog.NewMySQLCatalog(ctx, db, schemaName)

	plan, diag, err := schemarelate.BuildPlan(ctx, cat, opts)
	if err != nil {
		return fmt.Errorf("build plan failed: %w", err)
	}

	for _, d := range diag.All() {
		logger.Warn(d.Message, slog.String("source", d.Source), slog.String("table", d.Table))
	}

	printSummary(os.Stdout, plan)
	return nil
}

// buildOptions translates the config-file-loadable subset of
// schemarelate.Options into the real thing, compiling the two regex
// filters up front so a typo surfaces before any catalog I/O happens.
func buildOptions(cfg *config.Config) (schemarelate.Options, error) {
	opts := schemarelate.Options{
		DBSchema:          cfg.Options.DBSchema,
		PreviousIndexPath: cfg.Options.PreviousIndex,
	}
	if cfg.Options.ConstraintRegex != "" {
		re, err := regexp.Compile(cfg.Options.ConstraintRegex)
		if err != nil {
			return opts, fmt.Errorf("invalid constraint regex: %w", err)
		}
		opts.Constraint = re
	}
	if cfg.Options.ExcludeRegex != "" {
		re, err := regexp.Compile(cfg.Options.ExcludeRegex)
		if err != nil {
			return opts, fmt.Errorf("invalid exclude regex: %w", err)
		}
		opts.Exclude = re
	}
	return opts, nil
}

// newTracerProvider builds an SDK TracerProvider with no exporter
// attached: every catalog query and inference pass still opens a real
// span (internal/telemetry.StartSpan), but nothing is flushed anywhere,
// since no exporter/collector pipeline is in scope for this core.
func newTracerProvider() (*sdktrace.TracerProvider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", semconv.ServiceName("schemarelate")),
	)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

// reservedClassMethods are the generated-class method names a
// relationship accessor would collide with on the host's target
// runtime. Standing in for a real host's introspection, this is the
// same kind of fixed word set spec's scenario E exercises.
var reservedClassMethods = map[string]bool{
	"string":   true,
	"error":    true,
	"save":     true,
	"delete":   true,
	"validate": true,
	"new":      true,
	"table":    true,
}

func isReservedClassMethod(name, moniker string) bool {
	return reservedClassMethods[name]
}

// printSummary writes one line per source and, indented beneath it, one
// line per relationship resolved onto that source, in plan order.
func printSummary(w *os.File, plan *schema.RelationshipPlan) {
	for _, moniker := range plan.Order {
		src := plan.Sources[moniker]
		fmt.Fprintf(w, "%s (%s)\n", src.Moniker, src.Table.SanitizedName)
		for _, rel := range src.Relationships {
			fmt.Fprintf(w, "  %s %s -> %s\n", rel.Method, rel.Name, rel.TargetSource)
		}
	}
}
