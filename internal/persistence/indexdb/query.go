package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"

	"idlemine.ai/internal/sim/game"
)

// Summary aggregates the index for the inspect tool and the admin API.
type Summary struct {
	Events         map[string]int64 `json:"events"`
	Deliveries     int64            `json:"deliveries"`
	DeliveredItems int64            `json:"delivered_items"`
	DeliveredGold  float64          `json:"delivered_gold"`
	KillsByType    map[string]int64 `json:"kills_by_type"`
	KillsByCause   map[string]int64 `json:"kills_by_cause"`
	Prestiges      int64            `json:"prestiges"`
	PrestigeAward  int64            `json:"prestige_award"`
	Waves          int64            `json:"waves"`
	LastBackup     *BackupInfo      `json:"last_backup,omitempty"`
}

type BackupInfo struct {
	SavedAt       int64   `json:"saved_at"`
	Path          string  `json:"path"`
	Gold          float64 `json:"gold"`
	PrestigeCount int     `json:"prestige_count"`
}

func (s *SQLiteIndex) Summary(ctx context.Context) (Summary, error) {
	out := Summary{
		Events:       map[string]int64{},
		KillsByType:  map[string]int64{},
		KillsByCause: map[string]int64{},
	}
	if err := groupCount(ctx, s.db, `SELECT name, COUNT(*) FROM events GROUP BY name`, out.Events); err != nil {
		return out, err
	}
	if err := groupCount(ctx, s.db, `SELECT enemy_type, COUNT(*) FROM kills GROUP BY enemy_type`, out.KillsByType); err != nil {
		return out, err
	}
	if err := groupCount(ctx, s.db, `SELECT cause, COUNT(*) FROM kills GROUP BY cause`, out.KillsByCause); err != nil {
		return out, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(items),0), COALESCE(SUM(gold),0) FROM deliveries`)
	if err := row.Scan(&out.Deliveries, &out.DeliveredItems, &out.DeliveredGold); err != nil {
		return out, err
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(award),0) FROM prestiges`)
	if err := row.Scan(&out.Prestiges, &out.PrestigeAward); err != nil {
		return out, err
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM waves WHERE phase = 'start'`)
	if err := row.Scan(&out.Waves); err != nil {
		return out, err
	}

	var b BackupInfo
	err := s.db.QueryRowContext(ctx, `SELECT saved_at, path, gold, prestige_count FROM backups ORDER BY saved_at DESC LIMIT 1`).
		Scan(&b.SavedAt, &b.Path, &b.Gold, &b.PrestigeCount)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return out, err
	default:
		out.LastBackup = &b
	}
	return out, nil
}

// RecentEvents returns up to limit of the newest indexed events, newest
// first. An empty name matches every event.
func (s *SQLiteIndex) RecentEvents(ctx context.Context, name string, limit int) ([]game.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT cursor, tick, at_ms, name, data_json FROM events WHERE (? = '' OR name = ?) ORDER BY id DESC LIMIT ?`,
		name, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Event
	for rows.Next() {
		var (
			e    game.Event
			cur  int64
			tick int64
			data sql.NullString
		)
		if err := rows.Scan(&cur, &tick, &e.AtMS, &e.Name, &data); err != nil {
			return nil, err
		}
		e.Cursor = uint64(cur)
		e.Tick = uint64(tick)
		if data.Valid && data.String != "" {
			_ = json.Unmarshal([]byte(data.String), &e.Data)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func groupCount(ctx context.Context, db *sql.DB, q string, into map[string]int64) error {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			k string
			n int64
		)
		if err := rows.Scan(&k, &n); err != nil {
			return err
		}
		into[k] = n
	}
	return rows.Err()
}
