package marketdata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferenceRepository serves trader and group reference lists.
// 정적 상수 목록 대신 DB에서 주입되는 참조 데이터다. 핵심 계산은 이 목록의
// 내용에 의존하지 않는다.
type ReferenceRepository struct {
	pool *pgxpool.Pool
}

// NewReferenceRepository creates a new reference repository.
func NewReferenceRepository(pool *pgxpool.Pool) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

// Traders lists the active trader names.
func (r *ReferenceRepository) Traders(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, `
		SELECT DISTINCT trader_name
		FROM risk.traders
		WHERE active
		ORDER BY trader_name
	`)
}

// Groups lists the trading group names.
func (r *ReferenceRepository) Groups(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, `
		SELECT DISTINCT group_name
		FROM risk.traders
		WHERE active
		ORDER BY group_name
	`)
}

func (r *ReferenceRepository) listNames(ctx context.Context, query string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reference names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan reference name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
