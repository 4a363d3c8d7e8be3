package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/minrei/internal/contracts"
)

// PositionRepository loads position snapshots from the risk database.
// ⭐ SSOT: 포지션 조회는 여기서만
// NOTE: weight는 여기서 deltaposition 등에 적용된다. 가격 클리닝은 하지 않는다.
type PositionRepository struct {
	pool *pgxpool.Pool
}

// NewPositionRepository creates a new position repository.
func NewPositionRepository(pool *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{pool: pool}
}

const positionColumns = `
	valuation_date, trader_name, px_location, contract_month, forward_month,
	deltaposition, gammaposition, thetaposition, vegaposition, weight
`

// LatestByTrader returns the trader's most recent position snapshot,
// normalized.
func (r *PositionRepository) LatestByTrader(ctx context.Context, traderName string) ([]contracts.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM risk.trader_positions
		WHERE trader_name = $1
		  AND valuation_date = (
			SELECT MAX(valuation_date) FROM risk.trader_positions WHERE trader_name = $1
		  )
	`

	rows, err := r.pool.Query(ctx, query, traderName)
	if err != nil {
		return nil, fmt.Errorf("query latest positions for %q: %w", traderName, err)
	}
	defer rows.Close()

	positions, err := scanPositions(rows)
	if err != nil {
		return nil, err
	}
	return NormalizePositions(positions), nil
}

// ByTraderAndDate returns the trader's snapshot on a specific valuation date,
// normalized.
func (r *PositionRepository) ByTraderAndDate(ctx context.Context, traderName string, valuationDate time.Time) ([]contracts.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM risk.trader_positions
		WHERE trader_name = $1 AND valuation_date = $2
	`

	rows, err := r.pool.Query(ctx, query, traderName, valuationDate)
	if err != nil {
		return nil, fmt.Errorf("query positions for %q on %s: %w", traderName, valuationDate.Format("2006-01-02"), err)
	}
	defer rows.Close()

	positions, err := scanPositions(rows)
	if err != nil {
		return nil, err
	}
	return NormalizePositions(positions), nil
}

// House returns the latest aggregate-book snapshot across all traders,
// normalized. 하우스 북은 트레이더 구분 없이 합산된다.
func (r *PositionRepository) House(ctx context.Context) ([]contracts.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM risk.trader_positions
		WHERE valuation_date = (SELECT MAX(valuation_date) FROM risk.trader_positions)
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query house positions: %w", err)
	}
	defer rows.Close()

	positions, err := scanPositions(rows)
	if err != nil {
		return nil, err
	}
	return NormalizePositions(positions), nil
}

// scanPositions reads raw rows; normalization happens afterwards via
// NormalizePositions.
func scanPositions(rows pgx.Rows) ([]contracts.Position, error) {
	var positions []contracts.Position
	for rows.Next() {
		var p contracts.Position
		if err := rows.Scan(
			&p.ValuationDate, &p.TraderName, &p.PxLocation, &p.ContractMonth, &p.ForwardMonth,
			&p.DeltaPosition, &p.GammaPosition, &p.ThetaPosition, &p.VegaPosition, &p.Weight,
		); err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
