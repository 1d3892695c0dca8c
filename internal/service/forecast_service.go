package service

import (
	"context"
	"math"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// Sentinel stockout horizon when there is no sales history to project from.
const noStockoutHorizonDays = 999

// ForecastStore is the read surface the forecasting engine needs
type ForecastStore interface {
	GetRecord(ctx context.Context, productID, warehouseID string) (*models.InventoryRecord, error)
	GetSalesAggregate(ctx context.Context, productID, warehouseID string, since time.Time) (*store.SalesAggregate, error)
	ListStockedPairs(ctx context.Context, warehouseID *string) ([]store.StockedPair, error)
}

var _ ForecastStore = (*store.Store)(nil)

// ForecastService is a pure read-model over the history ledger. It never
// writes and is independent of the reservation/transfer write path.
type ForecastService struct {
	store        ForecastStore
	lookbackDays int
	logger       *zap.Logger
}

// NewForecastService creates a new forecasting service
func NewForecastService(store ForecastStore, lookbackDays int) *ForecastService {
	return &ForecastService{
		store:        store,
		lookbackDays: lookbackDays,
		logger:       util.GetLogger(),
	}
}

// Forecast projects stockout timing for one product/warehouse pair from
// sale-type ledger rows in the lookback window.
func (s *ForecastService) Forecast(ctx context.Context, productID, warehouseID string) (*models.Forecast, error) {
	ctx, span := util.StartSpan(ctx, "ForecastService.Forecast")
	defer span.End()

	rec, err := s.store.GetRecord(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -s.lookbackDays)
	agg, err := s.store.GetSalesAggregate(ctx, productID, warehouseID, since)
	if err != nil {
		return nil, err
	}

	forecast := computeForecast(rec.AvailableQuantity, agg.TotalSold, agg.SaleCount, s.lookbackDays)
	forecast.ProductID = productID
	forecast.WarehouseID = warehouseID
	return &forecast, nil
}

// ForecastAll projects every stocked pair, optionally scoped to one
// warehouse. Per-pair failures are logged and skipped.
func (s *ForecastService) ForecastAll(ctx context.Context, warehouseID *string) ([]models.Forecast, error) {
	ctx, span := util.StartSpan(ctx, "ForecastService.ForecastAll")
	defer span.End()

	pairs, err := s.store.ListStockedPairs(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	forecasts := make([]models.Forecast, 0, len(pairs))
	for _, pair := range pairs {
		forecast, err := s.Forecast(ctx, pair.ProductID, pair.WarehouseID)
		if err != nil {
			s.logger.Warn("Failed to generate forecast",
				zap.String("product_id", pair.ProductID),
				zap.String("warehouse_id", pair.WarehouseID),
				zap.Error(err))
			continue
		}
		forecasts = append(forecasts, *forecast)
	}

	return forecasts, nil
}

// computeForecast derives the projection from window aggregates.
// Confidence is a data-sufficiency heuristic (full confidence at 100+
// sales), not a statistical interval.
func computeForecast(available, totalSold, saleCount, lookbackDays int) models.Forecast {
	var avgDailySales float64
	if saleCount > 0 && lookbackDays > 0 {
		avgDailySales = float64(totalSold) / float64(lookbackDays)
	}

	daysUntilStockout := noStockoutHorizonDays
	if avgDailySales > 0 {
		daysUntilStockout = int(math.Floor(float64(available) / avgDailySales))
	}

	safetyStock := avgDailySales * 7
	recommended := int(math.Ceil(avgDailySales*30 + safetyStock))

	confidence := math.Min(1, float64(saleCount)/100)

	return models.Forecast{
		ForecastedQuantity:       math.Max(0, float64(available)-safetyStock),
		DaysUntilStockout:        daysUntilStockout,
		RecommendedOrderQuantity: recommended,
		Confidence:               confidence,
	}
}
