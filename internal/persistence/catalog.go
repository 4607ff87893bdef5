package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/talgya/waystone/internal/world"
)

type settlementRow struct {
	ID   string          `db:"id"`
	Name string          `db:"name"`
	Type string          `db:"type"`
	X    sql.NullFloat64 `db:"pos_x"`
	Y    sql.NullFloat64 `db:"pos_y"`
}

// SaveSettlements replaces the catalog of one campaign.
func (db *DB) SaveSettlements(ctx context.Context, campaignSeed string, settlements []world.Settlement) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM settlements WHERE campaign_seed = ?", campaignSeed); err != nil {
		return fmt.Errorf("clear settlements: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT OR REPLACE INTO settlements
		(campaign_seed, id, name, type, pos_x, pos_y)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range settlements {
		_, err := stmt.ExecContext(ctx, campaignSeed, s.ID, s.Name, string(s.Type), s.Position.X, s.Position.Y)
		if err != nil {
			return fmt.Errorf("insert settlement %s: %w", s.ID, err)
		}
	}

	return tx.Commit()
}

// Settlements reads a campaign's catalog ordered by name. Rows whose type is
// not a settlement type, or without a finite position, are skipped.
func (db *DB) Settlements(ctx context.Context, campaignSeed string) ([]world.Settlement, error) {
	var rows []settlementRow
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT id, name, type, pos_x, pos_y FROM settlements WHERE campaign_seed = ? ORDER BY name, id",
		campaignSeed,
	)
	if err != nil {
		return nil, fmt.Errorf("select settlements: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	out := make([]world.Settlement, 0, len(rows))
	for _, r := range rows {
		if seen[r.ID] || !r.X.Valid || !r.Y.Valid {
			continue
		}
		pos := world.Vector2{X: r.X.Float64, Y: r.Y.Float64}
		if !pos.IsFinite() {
			continue
		}
		typ, ok := world.ParseSettlementType(r.Type)
		if !ok {
			continue
		}
		seen[r.ID] = true
		out = append(out, world.NewSettlement(r.ID, campaignSeed, r.Name, typ, pos))
	}
	return out, nil
}
