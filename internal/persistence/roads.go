package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/waystone/internal/roads"
	"github.com/talgya/waystone/internal/world"
)

var (
	encoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	})
	decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// compressJSON marshals v and zstd-compresses the result.
func compressJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	enc, err := encoder()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(raw, nil), nil
}

func decompressJSON(blob []byte, v any) error {
	dec, err := decoder()
	if err != nil {
		return err
	}
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

type roadRow struct {
	ID                   string  `db:"id"`
	CampaignSeed         string  `db:"campaign_seed"`
	FromSettlementID     string  `db:"from_settlement_id"`
	FromSettlementName   string  `db:"from_settlement_name"`
	ToSettlementID       string  `db:"to_settlement_id"`
	ToSettlementName     string  `db:"to_settlement_name"`
	FromX                float64 `db:"from_x"`
	FromY                float64 `db:"from_y"`
	ToX                  float64 `db:"to_x"`
	ToY                  float64 `db:"to_y"`
	PolylineJSON         string  `db:"polyline_json"`
	TerrainProfile       []byte  `db:"terrain_profile"`
	Length               float64 `db:"length"`
	AverageTraversalCost float64 `db:"average_traversal_cost"`
	CreatedAt            int64   `db:"created_at"`
	UpdatedAt            int64   `db:"updated_at"`
}

func (r roadRow) record() (roads.Record, error) {
	rec := roads.Record{
		ID:                   r.ID,
		CampaignSeed:         r.CampaignSeed,
		FromSettlementID:     r.FromSettlementID,
		FromSettlementName:   r.FromSettlementName,
		ToSettlementID:       r.ToSettlementID,
		ToSettlementName:     r.ToSettlementName,
		FromPosition:         world.Vector2{X: r.FromX, Y: r.FromY},
		ToPosition:           world.Vector2{X: r.ToX, Y: r.ToY},
		Length:               r.Length,
		AverageTraversalCost: r.AverageTraversalCost,
		CreatedAt:            fromMillis(r.CreatedAt),
		UpdatedAt:            fromMillis(r.UpdatedAt),
	}
	if err := json.Unmarshal([]byte(r.PolylineJSON), &rec.Polyline); err != nil {
		return roads.Record{}, fmt.Errorf("road %s polyline: %w", r.ID, err)
	}
	if err := decompressJSON(r.TerrainProfile, &rec.TerrainProfile); err != nil {
		return roads.Record{}, fmt.Errorf("road %s terrain profile: %w", r.ID, err)
	}
	return rec, nil
}

// Roads returns a campaign's roads in insertion order.
func (db *DB) Roads(ctx context.Context, campaignSeed string) ([]roads.Record, error) {
	var rows []roadRow
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT * FROM roads WHERE campaign_seed = ? ORDER BY rowid",
		campaignSeed,
	)
	if err != nil {
		return nil, fmt.Errorf("select roads: %w", err)
	}

	out := make([]roads.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// InsertRoads stores records whose unordered settlement pair is not yet
// present in their campaign and returns exactly those. Pairs that already
// exist are skipped silently, so concurrent writers cannot double-insert.
// Missing ids and timestamps are filled in.
func (db *DB) InsertRoads(ctx context.Context, records []roads.Record) ([]roads.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO roads
		(id, campaign_seed, from_settlement_id, from_settlement_name,
		 to_settlement_id, to_settlement_name, from_x, from_y, to_x, to_y,
		 polyline_json, terrain_profile, length, average_traversal_cost,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	now := db.now().UTC()
	inserted := make([]roads.Record, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			r.ID = roads.RecordID(r.CampaignSeed, r.FromSettlementID, r.ToSettlementID)
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}
		r.CreatedAt = fromMillis(toMillis(r.CreatedAt))
		r.UpdatedAt = fromMillis(toMillis(r.UpdatedAt))

		poly, err := json.Marshal(r.Polyline)
		if err != nil {
			return nil, fmt.Errorf("road %s polyline: %w", r.ID, err)
		}
		profile, err := compressJSON(r.TerrainProfile)
		if err != nil {
			return nil, fmt.Errorf("road %s terrain profile: %w", r.ID, err)
		}

		res, err := stmt.ExecContext(ctx,
			r.ID, r.CampaignSeed, r.FromSettlementID, r.FromSettlementName,
			r.ToSettlementID, r.ToSettlementName,
			r.FromPosition.X, r.FromPosition.Y, r.ToPosition.X, r.ToPosition.Y,
			string(poly), profile, r.Length, r.AverageTraversalCost,
			toMillis(r.CreatedAt), toMillis(r.UpdatedAt),
		)
		if err != nil {
			return nil, fmt.Errorf("insert road %s: %w", r.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			inserted = append(inserted, r)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return inserted, nil
}
