package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"checkout-service/config"
	"checkout-service/internal/catalog"
	"checkout-service/internal/refdata"
	"checkout-service/internal/shipping"
	"checkout-service/internal/store"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// refdata-publish validates a catalog or rate table file and stores it in
// Postgres, where the server reads it through a "pg:<name>" source.
func main() {
	kind := flag.String("kind", "", "table kind: catalog or shipfee")
	file := flag.String("file", "", "path of the delimited table to publish")
	name := flag.String("name", "", "stored table name (defaults to the kind)")
	flag.Parse()

	cfg := config.Load()
	if err := util.InitLogger(cfg.Server.Env, "refdata-publish"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	var shape refdata.TableShape
	switch *kind {
	case refdata.CatalogShape.Name:
		shape = refdata.CatalogShape
	case refdata.RateTableShape.Name:
		shape = refdata.RateTableShape
	default:
		logger.Fatal("Unknown table kind", zap.String("kind", *kind))
	}
	if *name == "" {
		*name = shape.Name
	}

	body, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("Failed to read table", zap.String("file", *file), zap.Error(err))
	}

	rows, err := refdata.ParseTable(string(body), shape)
	if err != nil {
		logger.Fatal("Table rejected", zap.String("file", *file), zap.Error(err))
	}

	var count int
	if shape.Name == refdata.CatalogShape.Name {
		count = catalog.FromRows(rows).Len()
	} else {
		count = shipping.RateTableFromRows(rows).Len()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to prepare schema", zap.Error(err))
	}
	if err := db.PutReferenceTable(ctx, *name, string(body)); err != nil {
		logger.Fatal("Failed to publish table", zap.String("name", *name), zap.Error(err))
	}

	logger.Info("Reference table published",
		zap.String("name", *name),
		zap.String("kind", shape.Name),
		zap.Int("records", count))
}
