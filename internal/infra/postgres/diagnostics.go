package postgres

import (
	"context"

	"quiz-delivery-service/internal/app"
)

// Diagnose reports connectivity, server version and which required tables
// are present. It never fails; problems are reported in the result.
func (s *Store) Diagnose(ctx context.Context) app.Diagnostics {
	d := app.Diagnostics{
		StoreDriver:   "postgres",
		Tables:        []string{},
		MissingTables: append([]string(nil), app.RequiredTables...),
	}
	if err := s.pool.Ping(ctx); err != nil {
		d.StoreError = err.Error()
		return d
	}
	d.StoreReachable = true

	if err := s.pool.QueryRow(ctx, `SHOW server_version`).Scan(&d.ServerVersion); err != nil {
		d.StoreError = err.Error()
		return d
	}

	rows, err := s.pool.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = ANY($1)
		ORDER BY table_name`, app.RequiredTables)
	if err != nil {
		d.StoreError = err.Error()
		return d
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			d.StoreError = err.Error()
			return d
		}
		d.Tables = append(d.Tables, name)
	}
	if err := rows.Err(); err != nil {
		d.StoreError = err.Error()
		return d
	}
	d.MissingTables = app.MissingTables(d.Tables)
	return d
}
