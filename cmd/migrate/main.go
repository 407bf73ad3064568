package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/pocket-ledger/internal/logger"
)

// migration is one versioned SQL file from the migrations directory.
type migration struct {
	Version  int
	Name     string
	SQL      string
	Checksum string
}

// migrationFilePattern matches versioned migration files: 0001_name.sql
var migrationFilePattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

func main() {
	var (
		project   = flag.String("project", os.Getenv("LEDGER_PROJECT"), "GCP project holding the reference-data dataset")
		dataset   = flag.String("dataset", "ledger", "BigQuery dataset ID")
		dir       = flag.String("migrations", "migrations", "Path to the migrations directory")
		appliedBy = flag.String("applied-by", "migrate-cli", "Name recorded against applied migrations")
	)
	flag.Parse()

	log := logger.New()

	if *project == "" {
		log.Fatal().Msg("-project is required")
	}

	ctx := context.Background()
	client, err := bigquery.NewClient(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project", *project).Str("dataset", *dataset).Msg("Connected to BigQuery")

	if err := runQuery(ctx, client, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS `+"`%s.%s.schema_migrations`"+` (
			version    INT64 NOT NULL,
			name       STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum   STRING,
			applied_by STRING
		)
	`, *project, *dataset), nil); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure schema_migrations table")
	}

	migrations, err := readMigrations(*dir, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Msg("Migration files found")

	applied, err := appliedVersions(ctx, client, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list applied migrations")
	}

	appliedCount := 0
	for _, m := range migrations {
		tag := fmt.Sprintf("%04d_%s", m.Version, m.Name)
		if applied[m.Version] {
			log.Info().Str("migration", tag).Msg("Already applied, skipping")
			continue
		}

		log.Info().Str("migration", tag).Msg("Applying")
		if err := runQuery(ctx, client, m.SQL, nil); err != nil {
			log.Fatal().Err(err).Str("migration", tag).Msg("Migration failed")
		}
		if err := recordMigration(ctx, client, *project, *dataset, m, *appliedBy); err != nil {
			log.Fatal().Err(err).Str("migration", tag).Msg("Failed to record migration")
		}
		appliedCount++
	}

	if appliedCount == 0 {
		log.Info().Msg("Reference dataset is up to date")
		return
	}
	log.Info().Int("applied", appliedCount).Msg("Migrations applied")
}

// parseMigrationFilename splits a migration filename into its version
// and name. ok is false when the filename does not follow the
// 0001_name.sql convention.
func parseMigrationFilename(filename string) (version int, name string, ok bool) {
	matches := migrationFilePattern.FindStringSubmatch(filename)
	if matches == nil {
		return 0, "", false
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, "", false
	}
	return version, matches[2], true
}

// expandPlaceholders substitutes the project/dataset placeholders so
// the same SQL files apply to any environment.
func expandPlaceholders(sql, project, dataset string) string {
	sql = strings.ReplaceAll(sql, "{{PROJECT_ID}}", project)
	return strings.ReplaceAll(sql, "{{DATASET_ID}}", dataset)
}

func readMigrations(dir, project, dataset string) ([]migration, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []migration
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		version, name, ok := parseMigrationFilename(file.Name())
		if !ok {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", file.Name(), err)
		}

		// Checksum covers the original content, before placeholder
		// expansion, so the same logical migration matches across
		// environments.
		migrations = append(migrations, migration{
			Version:  version,
			Name:     name,
			SQL:      expandPlaceholders(string(content), project, dataset),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func appliedVersions(ctx context.Context, client *bigquery.Client, project, dataset string) (map[int]bool, error) {
	query := client.Query(fmt.Sprintf(`
		SELECT version FROM `+"`%s.%s.schema_migrations`"+` ORDER BY version ASC
	`, project, dataset))

	it, err := query.Read(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "Not found") {
			return map[int]bool{}, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	applied := make(map[int]bool)
	for {
		var row struct{ Version int64 }
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}
		applied[int(row.Version)] = true
	}
	return applied, nil
}

func recordMigration(ctx context.Context, client *bigquery.Client, project, dataset string, m migration, appliedBy string) error {
	sql := fmt.Sprintf(`
		INSERT INTO `+"`%s.%s.schema_migrations`"+`
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, project, dataset)

	return runQuery(ctx, client, sql, []bigquery.QueryParameter{
		{Name: "version", Value: m.Version},
		{Name: "name", Value: m.Name},
		{Name: "checksum", Value: m.Checksum},
		{Name: "applied_by", Value: appliedBy},
	})
}

func runQuery(ctx context.Context, client *bigquery.Client, sql string, params []bigquery.QueryParameter) error {
	query := client.Query(sql)
	query.Parameters = params

	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
