package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"vaquero/internal"
	"vaquero/internal/config"
	"vaquero/internal/logging"
	"vaquero/internal/pipeline"
	"vaquero/internal/query"
	"vaquero/internal/refresh"
	"vaquero/internal/source"
	"vaquero/internal/storage"
	"vaquero/internal/util"
	"vaquero/internal/web"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "ingest":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.SourceProvider, "published|file|sheets")
		input := fs.String("input", "", "published URL or local file path")
		format := fs.String("format", "", "csv|xlsx|html")
		out := fs.String("out", cfg.OutputDir, "output directory")
		_ = fs.Parse(os.Args[2:])

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		ctx := context.Background()
		src, err := source.New(ctx, cfg, *provider, *input, *format)
		must(err)
		ingestion, err := refresh.NewIngestion(cfg, db, *out)
		must(err)
		result, err := ingestion.Run(ctx, src)
		must(err)
		must(db.SetMetadata(refresh.LastSuccessKey, time.Now().UTC().Format(time.RFC3339)))
		fmt.Printf("ingest done source=%s accepted=%d rejected=%d\n", result.Source, len(result.Records), len(result.Rejected))
		for _, path := range result.Artifacts {
			fmt.Printf("  wrote %s\n", path)
		}
	case "build:json":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		in := fs.String("in", filepath.Join(cfg.OutputDir, pipeline.InterchangeFileName), "interchange csv path")
		out := fs.String("out", filepath.Join(cfg.OutputDir, pipeline.DistributedFileName), "output json path")
		_ = fs.Parse(os.Args[2:])

		f, err := os.Open(*in)
		must(err)
		records, err := pipeline.ReadInterchangeCSV(f)
		_ = f.Close()
		must(err)
		must(pipeline.WriteFileAtomic(*out, func(w io.Writer) error {
			return pipeline.WriteDistributedJSON(w, records)
		}))
		fmt.Printf("wrote %d records to %s\n", len(records), *out)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		in := fs.String("in", "", "interchange csv or distributed json path (default: current snapshot)")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}

		records, err := loadRecords(cfg, *in)
		must(err)
		must(pipeline.ExportRecordsToXLSX(records, *out))
		fmt.Printf("exported %d records to %s\n", len(records), *out)
	case "categories":
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		counts, err := db.CountByCategory()
		must(err)
		for _, c := range counts {
			fmt.Printf("%-20s %d\n", c.Category, c.Count)
		}
	case "query":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		search := fs.String("search", "", "search text")
		category := fs.String("category", "", "category label")
		var roles stringList
		fs.Var(&roles, "role", "eligibility role (repeatable)")
		in := fs.String("in", "", "interchange csv or distributed json path (default: current snapshot)")
		_ = fs.Parse(os.Args[2:])

		state, err := stateFromFlags(*search, *category, roles)
		must(err)
		records, err := loadRecords(cfg, *in)
		must(err)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		must(enc.Encode(query.Run(records, state)))
	case "status":
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		status, err := refresh.ReadStatus(db)
		must(err)
		fmt.Printf("last success: %s\n", util.FirstNonEmpty(status.LastSuccess, "never"))
		if run := status.LatestRun; run != nil {
			fmt.Printf("latest run: trace=%s source=%s accepted=%d rejected=%d duration_ms=%d at=%s\n",
				run.TraceID, run.Source, run.Accepted, run.Rejected, run.DurationMs, run.CreatedAt)
		} else {
			fmt.Println("latest run: none")
		}
		for _, c := range status.Counts {
			fmt.Printf("  %-20s %d\n", c.Category, c.Count)
		}
	case "serve":
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		srv := web.NewServer(db, cfg.StateKey)
		go func() {
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
		if err := srv.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			must(err)
		}
	case "refresh":
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		svc, err := refresh.NewFromConfig(cfg, db)
		must(err)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(svc.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

// loadRecords reads an interchange CSV or distributed JSON when path is set,
// the stored snapshot otherwise.
func loadRecords(cfg config.Config, path string) ([]internal.DiscountRecord, error) {
	if strings.TrimSpace(path) != "" {
		return pipeline.ReadRecordsFile(path)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.ListDiscounts()
}

func stateFromFlags(search, category string, roles []string) (query.FilterState, error) {
	state := query.FilterState{Search: search}
	if strings.TrimSpace(category) != "" {
		c, ok := pipeline.CanonicalCategory(category)
		if !ok {
			return state, fmt.Errorf("unknown category: %s", category)
		}
		state.Category = c
	}
	for _, raw := range roles {
		role, ok := internal.ParseRole(raw)
		if !ok {
			return state, fmt.Errorf("unknown role: %s", raw)
		}
		if !state.HasRole(role) {
			state = state.ToggleRole(role)
		}
	}
	return state, nil
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func usage() {
	fmt.Println("usage: vaquero <command>")
	fmt.Println("commands:")
	fmt.Println("  ingest [--provider=published|file|sheets] [--input=URL|path] [--format=csv|xlsx|html] [--out=./out]")
	fmt.Println("  build:json [--in=./out/categorized_discounts.csv] [--out=./out/data.json]")
	fmt.Println("  export:xlsx --out=./out/discounts.xlsx [--in=...csv|json]")
	fmt.Println("  categories")
	fmt.Println("  status")
	fmt.Println("  query [--search=...] [--category=...] [--role=Students]... [--in=...csv|json]")
	fmt.Println("  serve")
	fmt.Println("  refresh")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
