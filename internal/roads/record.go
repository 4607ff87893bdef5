package roads

import (
	"time"

	"github.com/google/uuid"

	"github.com/talgya/waystone/internal/world"
)

// recordNamespace scopes road ids so the same pair always gets the same id.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("waystone/roads"))

// Record is a fully rendered road between two settlements. FromSettlementID
// is always the lexicographically smaller id.
type Record struct {
	ID                   string                `json:"id"`
	CampaignSeed         string                `json:"campaign_seed"`
	FromSettlementID     string                `json:"from_settlement_id"`
	FromSettlementName   string                `json:"from_settlement_name"`
	ToSettlementID       string                `json:"to_settlement_id"`
	ToSettlementName     string                `json:"to_settlement_name"`
	FromPosition         world.Vector2         `json:"from_position"`
	ToPosition           world.Vector2         `json:"to_position"`
	Polyline             []world.Vector2       `json:"polyline"`
	TerrainProfile       []world.TerrainSample `json:"terrain_profile"`
	Length               float64               `json:"length"`
	AverageTraversalCost float64               `json:"average_traversal_cost"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// Key returns the unordered pair key of the record's endpoints.
func (r Record) Key() string {
	return PairKey(r.FromSettlementID, r.ToSettlementID)
}

// RecordID derives the stable id of the road between two settlements.
func RecordID(campaignSeed, fromID, toID string) string {
	if toID < fromID {
		fromID, toID = toID, fromID
	}
	return uuid.NewSHA1(recordNamespace, []byte(campaignSeed+":"+fromID+":"+toID)).String()
}

// PolylineSeed is the random key used to curve the road between two
// settlements.
func PolylineSeed(campaignSeed, fromID, toID string) string {
	return campaignSeed + ":" + fromID + ":" + toID
}

// BuildRecord renders an accepted edge: curved polyline, terrain profile
// along it, total length and mean traversal cost. Timestamps are left for
// the store to fill.
func BuildRecord(f *world.Field, e Edge) Record {
	e = orient(e)
	seed := f.Seed()

	poly := Polyline(e.From.Position, e.To.Position, PolylineSeed(seed, e.From.ID, e.To.ID))
	profile := f.SamplePolyline(poly)
	length := Length(poly)

	avg := length
	if len(profile) > 0 {
		total := 0.0
		for _, s := range profile {
			total += s.TraversalCost
		}
		avg = total / float64(len(profile))
	}

	return Record{
		ID:                   RecordID(seed, e.From.ID, e.To.ID),
		CampaignSeed:         seed,
		FromSettlementID:     e.From.ID,
		FromSettlementName:   e.From.Name,
		ToSettlementID:       e.To.ID,
		ToSettlementName:     e.To.Name,
		FromPosition:         e.From.Position,
		ToPosition:           e.To.Position,
		Polyline:             poly,
		TerrainProfile:       profile,
		Length:               length,
		AverageTraversalCost: avg,
	}
}

// Dedupe keeps one record per unordered settlement pair. Later records win,
// but the position of the first occurrence is kept.
func Dedupe(records []Record) []Record {
	index := make(map[string]int, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := r.Key()
		if i, ok := index[k]; ok {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// Plan returns the records for every spanning edge whose pair is not in
// existing. Existing roads are never recomputed: once built, a road is not
// rerouted even if a fresh network would prefer a different connection.
func Plan(f *world.Field, settlements []world.Settlement, existing []Record) []Record {
	known := make(map[string]bool, len(existing))
	for _, r := range existing {
		known[r.Key()] = true
	}

	var out []Record
	for _, e := range BuildSpanningStructure(f, settlements) {
		if known[PairKey(e.From.ID, e.To.ID)] {
			continue
		}
		out = append(out, BuildRecord(f, e))
	}
	return out
}
