package service

import (
	"context"
	"time"

	"checkout-service/internal/catalog"
	"checkout-service/internal/refdata"
	"checkout-service/internal/shipping"
	"checkout-service/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReferenceData is the catalog and rate table the engine prices against.
// It is built once per load and never modified.
type ReferenceData struct {
	Catalog  *catalog.Index
	Rates    shipping.RateTable
	LoadedAt time.Time
}

// LoadReferenceData loads the catalog and the rate table concurrently. Both
// must succeed; a failure of either yields no reference data at all.
func LoadReferenceData(ctx context.Context, catalogSrc, rateSrc refdata.Source) (*ReferenceData, error) {
	var catalogRows, rateRows []refdata.Row

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := loadTable(gctx, catalogSrc, refdata.CatalogShape)
		catalogRows = rows
		return err
	})
	g.Go(func() error {
		rows, err := loadTable(gctx, rateSrc, refdata.RateTableShape)
		rateRows = rows
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ref := &ReferenceData{
		Catalog:  catalog.FromRows(catalogRows),
		Rates:    shipping.RateTableFromRows(rateRows),
		LoadedAt: time.Now(),
	}

	util.GetLogger().Info("Reference data loaded",
		zap.Int("products", ref.Catalog.Len()),
		zap.Int("rates", ref.Rates.Len()))
	return ref, nil
}

func loadTable(ctx context.Context, src refdata.Source, shape refdata.TableShape) ([]refdata.Row, error) {
	start := time.Now()
	defer func() {
		util.ReferenceDataLoadLatency.WithLabelValues(shape.Name).Observe(time.Since(start).Seconds())
	}()

	rows, err := refdata.Load(ctx, src, shape)
	if err != nil {
		util.ReferenceDataLoadFailures.WithLabelValues(shape.Name).Inc()
		return nil, err
	}
	return rows, nil
}
