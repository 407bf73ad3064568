package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dvloznov/pocket-ledger/internal/catalog"
	"github.com/dvloznov/pocket-ledger/internal/ingest"
	"github.com/dvloznov/pocket-ledger/internal/logger"
	"github.com/dvloznov/pocket-ledger/internal/store"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "paste":
		runPaste(log)
	case "text":
		runText(log)
	case "receipt":
		runReceipt(log)
	case "list":
		runList(log)
	case "delete":
		runDelete(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Pocket Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  paste     Parse tab-separated expense rows from a file or stdin and commit the valid ones")
	fmt.Println("  text      Parse free-form text with the generative model")
	fmt.Println("  receipt   Parse a receipt image with the vision model")
	fmt.Println("  list      List stored transactions")
	fmt.Println("  delete    Delete transactions by id")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// buildPipeline wires the catalog, store and (optionally) the model
// from the shared flags.
func buildPipeline(ctx context.Context, log zerolog.Logger, project, bucket, model string, withModel bool) (*ingest.Pipeline, *store.GCSStore) {
	catalogRepo, err := catalog.NewBigQueryRepository(ctx, project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create catalog repository")
	}
	defer catalogRepo.Close()

	cat, err := catalog.Load(ctx, catalogRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load reference catalog")
	}

	txStore, err := store.NewGCSStore(ctx, bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction store")
	}

	var gemini ingest.GenerativeModel
	if withModel {
		gemini, err = ingest.NewGeminiModel(ctx, model)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create generative model client")
		}
	}

	return ingest.New(cat, gemini, txStore, log), txStore
}

func commonFlags(fs *flag.FlagSet) (project, bucket, model *string) {
	project = fs.String("project", os.Getenv("LEDGER_PROJECT"), "GCP project with the reference-data dataset")
	bucket = fs.String("bucket", os.Getenv("LEDGER_BUCKET"), "GCS bucket holding transaction records")
	model = fs.String("model", os.Getenv("LEDGER_MODEL"), "Gemini model name")
	return
}

func runPaste(log zerolog.Logger) {
	fs := flag.NewFlagSet("paste", flag.ExitOnError)
	project, bucket, model := commonFlags(fs)
	file := fs.String("file", "", "File with tab-separated rows (default: stdin)")
	dryRun := fs.Bool("dry-run", false, "Parse and validate only, commit nothing")
	fs.Parse(os.Args[2:])

	raw := readInput(log, *file)

	ctx := context.Background()
	pipeline, txStore := buildPipeline(ctx, log, *project, *bucket, *model, false)
	defer txStore.Close()

	set, err := pipeline.ParseBulk(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}

	printCandidates(set)

	if *dryRun {
		return
	}

	result, remaining, err := pipeline.Submit(ctx, set)
	if err != nil {
		log.Fatal().Err(err).Msg("Submit failed")
	}
	printSubmitResult(result, remaining)
}

func runText(log zerolog.Logger) {
	fs := flag.NewFlagSet("text", flag.ExitOnError)
	project, bucket, model := commonFlags(fs)
	text := fs.String("text", "", "Text to parse (default: stdin)")
	commit := fs.Bool("commit", false, "Commit valid candidates after parsing")
	fs.Parse(os.Args[2:])

	raw := *text
	if raw == "" {
		raw = readInput(log, "")
	}

	ctx := context.Background()
	pipeline, txStore := buildPipeline(ctx, log, *project, *bucket, *model, true)
	defer txStore.Close()

	set, summary, err := pipeline.ParseFreeText(ctx, raw)
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}

	if summary != "" {
		fmt.Printf("Model: %s\n", summary)
	}
	if set.Len() == 0 {
		return
	}

	printCandidates(set)

	if *commit {
		result, remaining, err := pipeline.Submit(ctx, set)
		if err != nil {
			log.Fatal().Err(err).Msg("Submit failed")
		}
		printSubmitResult(result, remaining)
	}
}

func runReceipt(log zerolog.Logger) {
	fs := flag.NewFlagSet("receipt", flag.ExitOnError)
	project, bucket, model := commonFlags(fs)
	file := fs.String("file", "", "Receipt image file")
	gcsURI := fs.String("gcs-uri", "", "GCS URI of the receipt image (gs://bucket/path)")
	commit := fs.Bool("commit", false, "Commit the candidate after parsing")
	fs.Parse(os.Args[2:])

	ctx := context.Background()

	var image []byte
	var err error
	switch {
	case *file != "":
		image, err = os.ReadFile(*file)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("Failed to read image")
		}
	case *gcsURI != "":
		image, err = store.FetchObject(ctx, *gcsURI)
		if err != nil {
			log.Fatal().Err(err).Str("gcs_uri", *gcsURI).Msg("Failed to fetch image")
		}
	default:
		log.Fatal().Msg("Either -file or -gcs-uri is required")
	}

	pipeline, txStore := buildPipeline(ctx, log, *project, *bucket, *model, true)
	defer txStore.Close()

	set, message, err := pipeline.ParseReceiptImage(ctx, http.DetectContentType(image), image)
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}

	if message != "" {
		fmt.Printf("Model: %s\n", message)
	}
	if set.Len() == 0 {
		return
	}

	printCandidates(set)

	if *commit {
		result, remaining, err := pipeline.Submit(ctx, set)
		if err != nil {
			log.Fatal().Err(err).Msg("Submit failed")
		}
		printSubmitResult(result, remaining)
	}
}

func runList(log zerolog.Logger) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	_, bucket, _ := commonFlags(fs)
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	txStore, err := store.NewGCSStore(ctx, *bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction store")
	}
	defer txStore.Close()

	txs, err := txStore.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	for _, tx := range txs {
		fmt.Printf("%s  %s  %-8s %10s  %s\n", tx.ID, tx.Date, tx.Type, tx.Amount.StringFixed(2), tx.Description)
	}
	fmt.Printf("%d transaction(s)\n", len(txs))
}

func runDelete(log zerolog.Logger) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	_, bucket, _ := commonFlags(fs)
	ids := fs.String("ids", "", "Comma-separated transaction ids")
	fs.Parse(os.Args[2:])

	if *ids == "" {
		log.Fatal().Msg("-ids is required")
	}

	ctx := context.Background()
	txStore, err := store.NewGCSStore(ctx, *bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction store")
	}
	defer txStore.Close()

	result, err := txStore.DeleteMany(ctx, strings.Split(*ids, ","))
	if err != nil {
		log.Fatal().Err(err).Msg("Delete failed")
	}

	fmt.Printf("%d deleted, %d failed\n", result.SuccessCount, result.ErrorCount)
	for _, e := range result.Errors {
		fmt.Printf("  %s: %s\n", e.ID, e.Message)
	}
}

func readInput(log zerolog.Logger, file string) string {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Failed to read input file")
		}
		return string(data)
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read stdin")
	}
	return string(data)
}

func printCandidates(set ingest.ReviewSet) {
	for _, c := range set.Candidates {
		status := "ok"
		if !c.Clean() {
			status = "INVALID"
		}
		date := ""
		if c.HasDate() {
			date = c.Date.String()
		}
		fmt.Printf("#%d [%s] %s  %-8s %10s  %s\n", c.Position, status, date, c.Type, c.Amount.StringFixed(2), c.Description)
		for _, e := range c.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}
}

func printSubmitResult(result ingest.SubmitResult, remaining ingest.ReviewSet) {
	fmt.Printf("%d added, %d failed\n", result.SuccessCount, result.ErrorCount)
	for _, f := range result.Failures {
		fmt.Printf("  row %d (%s):\n", f.Position, f.Description)
		for _, reason := range f.Reasons {
			fmt.Printf("    - %s\n", reason)
		}
	}
	if remaining.Len() > 0 {
		fmt.Printf("%d row(s) kept for correction\n", remaining.Len())
	}
}
