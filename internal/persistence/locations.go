package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talgya/waystone/internal/locate"
)

// SaveCharacterLocation upserts the last known location of a character.
func (db *DB) SaveCharacterLocation(ctx context.Context, loc locate.CharacterLocation) error {
	if loc.UpdatedAt.IsZero() {
		loc.UpdatedAt = db.now().UTC()
	}
	snapshot, err := compressJSON(loc)
	if err != nil {
		return fmt.Errorf("encode location %s: %w", loc.CharacterID, err)
	}
	_, err = db.conn.ExecContext(ctx, `INSERT INTO character_locations
		(character_id, campaign_seed, pos_x, pos_y, snapshot, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(character_id) DO UPDATE SET
			campaign_seed = excluded.campaign_seed,
			pos_x = excluded.pos_x,
			pos_y = excluded.pos_y,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at`,
		loc.CharacterID, loc.CampaignSeed, loc.LastPosition.X, loc.LastPosition.Y,
		snapshot, toMillis(loc.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save location %s: %w", loc.CharacterID, err)
	}
	return nil
}

// CharacterLocation returns the last saved location of a character.
func (db *DB) CharacterLocation(ctx context.Context, characterID string) (locate.CharacterLocation, error) {
	var snapshot []byte
	err := db.conn.GetContext(ctx, &snapshot,
		"SELECT snapshot FROM character_locations WHERE character_id = ?", characterID)
	if errors.Is(err, sql.ErrNoRows) {
		return locate.CharacterLocation{}, ErrNotFound
	}
	if err != nil {
		return locate.CharacterLocation{}, fmt.Errorf("get location %s: %w", characterID, err)
	}

	var loc locate.CharacterLocation
	if err := decompressJSON(snapshot, &loc); err != nil {
		return locate.CharacterLocation{}, fmt.Errorf("decode location %s: %w", characterID, err)
	}
	return loc, nil
}
