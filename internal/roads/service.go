package roads

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/talgya/waystone/internal/world"
)

var tracer = otel.Tracer("github.com/talgya/waystone/internal/roads")

// Catalog is the read-only settlement source for a campaign.
type Catalog interface {
	Settlements(ctx context.Context, campaignSeed string) ([]world.Settlement, error)
}

// Store persists road records. InsertRoads must be idempotent per
// (campaign seed, unordered settlement pair): a pair that already exists is
// skipped, not reported as an error. It returns the records it inserted.
type Store interface {
	Roads(ctx context.Context, campaignSeed string) ([]Record, error)
	InsertRoads(ctx context.Context, records []Record) ([]Record, error)
}

// Service builds and extends campaign road networks on top of a catalog and
// a store. It holds no per-campaign state.
type Service struct {
	catalog Catalog
	store   Store
}

// NewService wires a Service.
func NewService(catalog Catalog, store Store) *Service {
	return &Service{catalog: catalog, store: store}
}

// Settlements returns the campaign's settlements with duplicate ids removed.
func (s *Service) Settlements(ctx context.Context, campaignSeed string) ([]world.Settlement, error) {
	list, err := s.catalog.Settlements(ctx, campaignSeed)
	if err != nil {
		return nil, err
	}
	return dedupeSettlements(list), nil
}

// Roads returns the persisted roads of a campaign.
func (s *Service) Roads(ctx context.Context, campaignSeed string) ([]Record, error) {
	return s.store.Roads(ctx, campaignSeed)
}

// EnsureNetwork returns the persisted network when it already reaches every
// known settlement, and extends it otherwise.
func (s *Service) EnsureNetwork(ctx context.Context, campaignSeed string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "roads.EnsureNetwork", trace.WithAttributes(attribute.String("campaign_seed", campaignSeed)))
	defer span.End()

	settlements, err := s.Settlements(ctx, campaignSeed)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.Roads(ctx, campaignSeed)
	if err != nil {
		return nil, err
	}
	if covers(existing, settlements) {
		return existing, nil
	}
	return s.extend(ctx, campaignSeed, settlements, existing)
}

// GenerateNetwork recomputes the spanning structure over all current
// settlements and persists only edges whose pair is not yet recorded.
func (s *Service) GenerateNetwork(ctx context.Context, campaignSeed string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "roads.GenerateNetwork", trace.WithAttributes(attribute.String("campaign_seed", campaignSeed)))
	defer span.End()

	settlements, err := s.Settlements(ctx, campaignSeed)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.Roads(ctx, campaignSeed)
	if err != nil {
		return nil, err
	}
	return s.extend(ctx, campaignSeed, settlements, existing)
}

func (s *Service) extend(ctx context.Context, campaignSeed string, settlements []world.Settlement, existing []Record) ([]Record, error) {
	if len(settlements) < 2 {
		return existing, nil
	}

	// Every record is fully rendered before anything reaches the store.
	planned := Plan(world.NewField(campaignSeed), settlements, existing)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("settlements", len(settlements)),
		attribute.Int("new_roads", len(planned)),
	)
	if len(planned) == 0 {
		return existing, nil
	}

	inserted, err := s.store.InsertRoads(ctx, planned)
	if err != nil {
		return nil, err
	}
	slog.Info("road network extended",
		"campaign_seed", campaignSeed,
		"settlements", len(settlements),
		"planned", len(planned),
		"inserted", len(inserted),
	)

	return Dedupe(append(append([]Record(nil), existing...), inserted...)), nil
}

// covers reports whether every settlement is an endpoint of some road.
// A campaign with fewer than two settlements needs no roads.
func covers(roads []Record, settlements []world.Settlement) bool {
	if len(settlements) < 2 {
		return true
	}
	reached := make(map[string]bool, len(roads)*2)
	for _, r := range roads {
		reached[r.FromSettlementID] = true
		reached[r.ToSettlementID] = true
	}
	for _, st := range settlements {
		if !reached[st.ID] {
			return false
		}
	}
	return true
}

func dedupeSettlements(list []world.Settlement) []world.Settlement {
	seen := make(map[string]bool, len(list))
	out := make([]world.Settlement, 0, len(list))
	for _, st := range list {
		if seen[st.ID] {
			continue
		}
		seen[st.ID] = true
		out = append(out, st)
	}
	return out
}
