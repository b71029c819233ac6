package repository

import (
	"context"
	"time"
)

// GlobalStats aggregates completed session figures.
type GlobalStats struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalEnergyKWh float64 `json:"total_energy_kwh"`
	TotalSessions  int64   `json:"total_sessions"`
	TotalStations  int64   `json:"total_stations"`
}

// RevenuePoint is one day of settled revenue.
type RevenuePoint struct {
	Day     time.Time `json:"day"`
	Revenue float64   `json:"revenue"`
}

// StatsRepository computes reporting aggregates over charging sessions.
type StatsRepository struct {
	q Querier
}

// NewStatsRepository returns repository.
func NewStatsRepository(q Querier) *StatsRepository {
	return &StatsRepository{q: q}
}

// Global returns network-wide totals for settled sessions.
func (r *StatsRepository) Global(ctx context.Context) (*GlobalStats, error) {
	const query = `
		SELECT
			COALESCE(SUM(cost) FILTER (WHERE payment_status = 'Paid'), 0),
			COALESCE(SUM(energy_kwh) FILTER (WHERE end_time IS NOT NULL), 0),
			COUNT(*) FILTER (WHERE end_time IS NOT NULL),
			(SELECT COUNT(*) FROM charging_stations WHERE is_operational = TRUE)
		FROM charging_sessions
	`
	var stats GlobalStats
	if err := r.q.QueryRowContext(ctx, query).Scan(
		&stats.TotalRevenue,
		&stats.TotalEnergyKWh,
		&stats.TotalSessions,
		&stats.TotalStations,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

// RevenueOverTime returns paid revenue grouped by day for the last N days.
func (r *StatsRepository) RevenueOverTime(ctx context.Context, days int) ([]RevenuePoint, error) {
	if days <= 0 {
		days = 30
	}
	const query = `
		SELECT date_trunc('day', start_time) AS day, COALESCE(SUM(cost), 0)
		FROM charging_sessions
		WHERE payment_status = 'Paid'
		  AND start_time >= NOW() - make_interval(days => $1)
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.q.QueryContext(ctx, query, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []RevenuePoint
	for rows.Next() {
		var p RevenuePoint
		if err := rows.Scan(&p.Day, &p.Revenue); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// UserStats aggregates one user's charging history.
type UserStats struct {
	UserID         int64   `json:"user_id"`
	TotalSessions  int64   `json:"total_sessions"`
	TotalEnergyKWh float64 `json:"total_energy_kwh"`
	TotalCost      float64 `json:"total_cost"`
}

// ForUser returns per-user totals over completed sessions.
func (r *StatsRepository) ForUser(ctx context.Context, userID int64) (*UserStats, error) {
	const query = `
		SELECT COUNT(*), COALESCE(SUM(energy_kwh), 0), COALESCE(SUM(cost), 0)
		FROM charging_sessions
		WHERE user_id = $1 AND end_time IS NOT NULL
	`
	stats := &UserStats{UserID: userID}
	if err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalSessions,
		&stats.TotalEnergyKWh,
		&stats.TotalCost,
	); err != nil {
		return nil, err
	}
	return stats, nil
}
