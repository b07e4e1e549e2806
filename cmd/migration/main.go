package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"gitlab.com/dirk.krummacker/contactbook/internal/config"
	"gitlab.com/dirk.krummacker/contactbook/internal/logging"
	"gitlab.com/dirk.krummacker/contactbook/internal/store"
)

// Usage example on the command line:
// > DB_DRIVER=mysql DBHOST=localhost DBUSER=dirk DBPWD=bullo92 go run ./cmd/migration -file=scripts/database.sql
func main() {
	filePtr := flag.String("file", "scripts/database.sql", "the sql file to execute")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load configuration")
	}
	logging.Init(cfg.App.Environment, cfg.App.LogLevel)

	sqlDB, driverName, err := store.CreateDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open database")
	}
	db := sqlx.NewDb(sqlDB, driverName)
	defer db.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("could not create schema")
	}

	readFile, err := os.Open(*filePtr) // nosemgrep
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePtr).Msg("could not open sql file")
	}
	defer readFile.Close()

	executed, err := execStatements(ctx, db, readFile)
	if err != nil {
		log.Fatal().Err(err).Int("executed", executed).Msg("migration failed")
	}
	log.Info().Int("statements", executed).Str("file", *filePtr).Msg("migration finished")
}

// execStatements executes every statement of the script. A statement ends at the first line that
// contains a semicolon. Lines starting with "--" are comments.
func execStatements(ctx context.Context, db *sqlx.DB, script io.Reader) (int, error) {
	fileScanner := bufio.NewScanner(script)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	executed := 0
	for fileScanner.Scan() {
		line := fileScanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			if _, err := db.ExecContext(ctx, builder.String()); err != nil {
				return executed, err
			}
			executed++
			builder = strings.Builder{}
		}
	}
	return executed, fileScanner.Err()
}
