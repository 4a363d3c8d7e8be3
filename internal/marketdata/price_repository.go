package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/minrei/internal/contracts"
)

// FullHistory requests the complete price history instead of a bounded
// lookback window.
const FullHistory = -1

// PriceRepository loads historical instrument prices in USD.
// ⭐ SSOT: 가격 조회는 여기서만
// NOTE: FX와 price basis는 NormalizePrices 단계에서 적용되어 나간다.
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

const priceColumns = `
	px_location, px_date, contract_month, forward_month, price, price_basis, rate
`

// Historical returns price history for the given instruments, looking back
// lookbackDays trading days from the latest print (FullHistory for all).
func (r *PriceRepository) Historical(ctx context.Context, locations []string, lookbackDays int) ([]contracts.PriceObservation, error) {
	locations = NormalizeLocations(locations)

	if lookbackDays == FullHistory {
		return r.full(ctx, locations)
	}
	return r.latestLookback(ctx, locations, lookbackDays)
}

// HistoricalFrom returns lookbackDays of price history counting back from an
// explicit start date.
func (r *PriceRepository) HistoricalFrom(ctx context.Context, locations []string, startDate time.Time, lookbackDays int) ([]contracts.PriceObservation, error) {
	locations = NormalizeLocations(locations)

	query := `
		SELECT ` + priceColumns + `
		FROM risk.historical_prices
		WHERE px_location = ANY($1)
		  AND px_date <= $2
		  AND px_date > $2::date - $3 * INTERVAL '1 day'
		ORDER BY px_location, contract_month, px_date
	`

	rows, err := r.pool.Query(ctx, query, locations, startDate, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("query prices from %s: %w", startDate.Format("2006-01-02"), err)
	}
	defer rows.Close()

	return scanPrices(rows)
}

func (r *PriceRepository) full(ctx context.Context, locations []string) ([]contracts.PriceObservation, error) {
	query := `
		SELECT ` + priceColumns + `
		FROM risk.historical_prices
		WHERE px_location = ANY($1)
		ORDER BY px_location, contract_month, px_date
	`

	rows, err := r.pool.Query(ctx, query, locations)
	if err != nil {
		return nil, fmt.Errorf("query full price history: %w", err)
	}
	defer rows.Close()

	return scanPrices(rows)
}

func (r *PriceRepository) latestLookback(ctx context.Context, locations []string, lookbackDays int) ([]contracts.PriceObservation, error) {
	query := `
		SELECT ` + priceColumns + `
		FROM risk.historical_prices
		WHERE px_location = ANY($1)
		  AND px_date > (
			SELECT MAX(px_date) FROM risk.historical_prices WHERE px_location = ANY($1)
		  ) - $2 * INTERVAL '1 day'
		ORDER BY px_location, contract_month, px_date
	`

	rows, err := r.pool.Query(ctx, query, locations, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("query %d-day price history: %w", lookbackDays, err)
	}
	defer rows.Close()

	return scanPrices(rows)
}

// scanPrices reads raw rows and applies the explicit NormalizePrices
// transform.
func scanPrices(rows pgx.Rows) ([]contracts.PriceObservation, error) {
	var raw []PriceRow
	for rows.Next() {
		var row PriceRow
		if err := rows.Scan(
			&row.PxLocation, &row.PxDate, &row.ContractMonth, &row.ForwardMonth,
			&row.Price, &row.PriceBasis, &row.Rate,
		); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NormalizePrices(raw), nil
}
