package marketdata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/minrei/internal/contracts"
)

// CommodityRepository loads commodity classification data.
type CommodityRepository struct {
	pool *pgxpool.Pool
}

// NewCommodityRepository creates a new commodity repository.
func NewCommodityRepository(pool *pgxpool.Pool) *CommodityRepository {
	return &CommodityRepository{pool: pool}
}

// SeasonalIndex returns the set of instruments that must be tracked by
// calendar delivery month.
func (r *CommodityRepository) SeasonalIndex(ctx context.Context) (contracts.SeasonalIndex, error) {
	query := `
		SELECT px_location
		FROM risk.seasonal_commodities
		ORDER BY px_location
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query seasonal index: %w", err)
	}
	defer rows.Close()

	var locations []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("scan seasonal index row: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contracts.NewSeasonalIndex(locations), nil
}
