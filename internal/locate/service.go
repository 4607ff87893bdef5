package locate

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/waystone/internal/roads"
	"github.com/talgya/waystone/internal/world"
)

var tracer = otel.Tracer("github.com/talgya/waystone/internal/locate")

// CharacterLocation is the last known context of a character.
type CharacterLocation struct {
	CharacterID       string                `json:"character_id"`
	CampaignSeed      string                `json:"campaign_seed"`
	LastPosition      world.Vector2         `json:"last_position"`
	NearestSettlement *SettlementSummary    `json:"nearest_settlement"`
	NearestRoad       *RoadProximity        `json:"nearest_road"`
	NearbySettlements []SettlementSummary   `json:"nearby_settlements"`
	TerrainProfile    []world.TerrainSample `json:"terrain_profile"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// LocationStore saves character locations, replacing any previous entry.
type LocationStore interface {
	SaveCharacterLocation(ctx context.Context, loc CharacterLocation) error
}

// Service assembles location contexts from the live catalog and road
// network.
type Service struct {
	network   *roads.Service
	locations LocationStore
	now       func() time.Time
}

// NewService wires a Service. locations may be nil, in which case character
// locations are never saved.
func NewService(network *roads.Service, locations LocationStore) *Service {
	return &Service{network: network, locations: locations, now: time.Now}
}

// Locate builds the context for pos in a campaign. When the campaign has at
// least two settlements but no roads yet, the network is generated first.
func (s *Service) Locate(ctx context.Context, campaignSeed string, pos world.Vector2, opts Options) (Context, error) {
	ctx, span := tracer.Start(ctx, "locate.Locate", trace.WithAttributes(
		attribute.String("campaign_seed", campaignSeed),
		attribute.Float64("x", pos.X),
		attribute.Float64("y", pos.Y),
	))
	defer span.End()

	var (
		settlements []world.Settlement
		rs          []roads.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settlements, err = s.network.Settlements(gctx, campaignSeed)
		return err
	})
	g.Go(func() error {
		var err error
		rs, err = s.network.Roads(gctx, campaignSeed)
		return err
	})
	if err := g.Wait(); err != nil {
		return Context{}, err
	}

	if len(rs) == 0 && len(settlements) >= 2 {
		var err error
		if rs, err = s.network.GenerateNetwork(ctx, campaignSeed); err != nil {
			return Context{}, err
		}
	}

	out := Build(world.NewField(campaignSeed), settlements, rs, pos, opts)
	span.SetAttributes(
		attribute.Int("settlements", len(settlements)),
		attribute.Int("roads", len(rs)),
	)

	if opts.CharacterID != "" && !opts.SkipPersist && s.locations != nil {
		loc := CharacterLocation{
			CharacterID:       opts.CharacterID,
			CampaignSeed:      campaignSeed,
			LastPosition:      pos,
			NearestSettlement: out.NearestSettlement,
			NearestRoad:       out.NearestRoad,
			NearbySettlements: out.NearbySettlements,
			TerrainProfile:    out.TerrainSample,
			UpdatedAt:         s.now().UTC(),
		}
		if err := s.locations.SaveCharacterLocation(ctx, loc); err != nil {
			return Context{}, err
		}
	}
	return out, nil
}
