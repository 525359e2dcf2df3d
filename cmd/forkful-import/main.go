// Package main is the ingredient catalog importer. It reads a CSV file of
// "name,measurement_unit" rows and upserts them into the database, so the
// catalog can be loaded before the API serves its first recipe.
//
// Usage:
//
//	forkful-import path/to/ingredients.csv
package main

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"

	"forkful/internal/config"
	"forkful/internal/database"
	"forkful/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		slog.Error("usage: forkful-import <ingredients.csv>")
		os.Exit(2)
	}

	rows, err := readCSV(os.Args[1])
	if err != nil {
		slog.Error("failed to read csv", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	inserted, err := store.NewIngredientStore(db).Import(rows)
	if err != nil {
		slog.Error("import failed", "inserted", inserted, "error", err)
		os.Exit(1)
	}

	slog.Info("ingredient import complete",
		"rows", len(rows),
		"inserted", inserted,
		"skipped", len(rows)-inserted,
	)
}

// readCSV parses "name,measurement_unit" rows, skipping blanks.
func readCSV(path string) ([]store.ImportRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	var rows []store.ImportRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		name := strings.TrimSpace(record[0])
		unit := strings.TrimSpace(record[1])
		if name == "" || unit == "" {
			continue
		}
		rows = append(rows, store.ImportRow{Name: name, MeasurementUnit: unit})
	}
	return rows, nil
}
