package locate

import (
	"math"
	"sort"

	"github.com/talgya/waystone/internal/roads"
	"github.com/talgya/waystone/internal/world"
)

// Query defaults.
const (
	DefaultRadius      = 30.0
	DefaultNearbyLimit = 3
	minNeighborhood    = 2
	maxNeighborhood    = 5
)

// SettlementSummary is a settlement with its distance from the query point.
type SettlementSummary struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Type     world.SettlementType `json:"type"`
	X        float64              `json:"x"`
	Y        float64              `json:"y"`
	Distance float64              `json:"distance"`
}

// RoadProximity is the closest point on a road to the query point.
type RoadProximity struct {
	RoadID             string        `json:"road_id"`
	Distance           float64       `json:"distance"`
	PositionOnRoad     world.Vector2 `json:"position_on_road"`
	SegmentIndex       int           `json:"segment_index"`
	FromSettlementID   string        `json:"from_settlement_id"`
	FromSettlementName string        `json:"from_settlement_name"`
	ToSettlementID     string        `json:"to_settlement_id"`
	ToSettlementName   string        `json:"to_settlement_name"`
}

// Context is the read model assembled for one position. It is never
// persisted as-is.
type Context struct {
	CampaignSeed      string                `json:"campaign_seed"`
	Position          world.Vector2         `json:"position"`
	NearestSettlement *SettlementSummary    `json:"nearest_settlement"`
	NearbySettlements []SettlementSummary   `json:"nearby_settlements"`
	NearestRoad       *RoadProximity        `json:"nearest_road"`
	RoadsWithinRadius []roads.Record        `json:"roads_within_radius"`
	TerrainSample     []world.TerrainSample `json:"terrain_sample"`
}

// Options tune a location query. Zero values take the defaults.
type Options struct {
	Radius             float64
	NearbyLimit        int
	NeighborhoodRadius int
	CharacterID        string // when set, the context is saved for this character
	SkipPersist        bool
}

func (o Options) withDefaults() Options {
	if o.Radius <= 0 {
		o.Radius = DefaultRadius
	}
	if o.NearbyLimit <= 0 {
		o.NearbyLimit = DefaultNearbyLimit
	}
	if o.NeighborhoodRadius <= 0 {
		o.NeighborhoodRadius = NeighborhoodRadiusFor(o.Radius)
	}
	return o
}

// NeighborhoodRadiusFor derives the terrain grid radius from a query radius,
// clamped to [2, 5].
func NeighborhoodRadiusFor(radius float64) int {
	r := int(math.Floor(radius / 6))
	return min(maxNeighborhood, max(minNeighborhood, r))
}

// Build assembles a location context from already-fetched settlements and
// roads. It performs no I/O and mutates nothing.
func Build(f *world.Field, settlements []world.Settlement, rs []roads.Record, pos world.Vector2, opts Options) Context {
	opts = opts.withDefaults()
	return Context{
		CampaignSeed:      f.Seed(),
		Position:          pos,
		NearestSettlement: NearestSettlement(pos, settlements),
		NearbySettlements: NearbySettlements(pos, settlements, opts.Radius, opts.NearbyLimit),
		NearestRoad:       NearestRoad(pos, rs),
		RoadsWithinRadius: RoadsWithinRadius(pos, rs, opts.Radius),
		TerrainSample:     Neighborhood(f, pos, opts.NeighborhoodRadius),
	}
}

func summarize(pos world.Vector2, s world.Settlement) SettlementSummary {
	return SettlementSummary{
		ID:       s.ID,
		Name:     s.Name,
		Type:     s.Type,
		X:        s.Position.X,
		Y:        s.Position.Y,
		Distance: world.Distance(pos, s.Position),
	}
}

// NearestSettlement returns the closest settlement, or nil when there are
// none. Ties go to the earlier settlement.
func NearestSettlement(pos world.Vector2, settlements []world.Settlement) *SettlementSummary {
	var nearest *SettlementSummary
	for _, s := range settlements {
		sum := summarize(pos, s)
		if nearest == nil || sum.Distance < nearest.Distance {
			nearest = &sum
		}
	}
	return nearest
}

// NearbySettlements returns settlements within radius, closest first, at
// most limit of them.
func NearbySettlements(pos world.Vector2, settlements []world.Settlement, radius float64, limit int) []SettlementSummary {
	out := make([]SettlementSummary, 0)
	for _, s := range settlements {
		if sum := summarize(pos, s); sum.Distance <= radius {
			out = append(out, sum)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// NearestRoad projects pos onto every segment of every road and returns the
// globally closest hit, or nil when there are no roads. Roads without a
// polyline are ignored.
func NearestRoad(pos world.Vector2, rs []roads.Record) *RoadProximity {
	var nearest *RoadProximity
	for _, r := range rs {
		if len(r.Polyline) == 0 {
			continue
		}
		proj := DistanceToPolyline(pos, r.Polyline)
		if nearest == nil || proj.Distance < nearest.Distance {
			nearest = &RoadProximity{
				RoadID:             r.ID,
				Distance:           proj.Distance,
				PositionOnRoad:     proj.Position,
				SegmentIndex:       proj.SegmentIndex,
				FromSettlementID:   r.FromSettlementID,
				FromSettlementName: r.FromSettlementName,
				ToSettlementID:     r.ToSettlementID,
				ToSettlementName:   r.ToSettlementName,
			}
		}
	}
	return nearest
}

// RoadsWithinRadius keeps the roads whose closest segment is within radius.
func RoadsWithinRadius(pos world.Vector2, rs []roads.Record, radius float64) []roads.Record {
	out := make([]roads.Record, 0)
	for _, r := range rs {
		if DistanceToPolyline(pos, r.Polyline).Distance <= radius {
			out = append(out, r)
		}
	}
	return out
}

// Neighborhood samples the (2*radius+1)^2 grid around the tile containing
// pos. Slope is measured against the centre tile.
func Neighborhood(f *world.Field, pos world.Vector2, radius int) []world.TerrainSample {
	center := pos.Round()
	base := f.Tile(float64(center.X), float64(center.Y)).Elevation

	b := world.BoundsAround(center.X, center.Y, radius)
	samples := make([]world.TerrainSample, 0, b.TileCount())
	for _, t := range f.TilesInBounds(b) {
		samples = append(samples, world.NewSample(t, math.Abs(t.Elevation-base)))
	}
	return samples
}
