package world

import "strings"

// SettlementType categorizes settlements. Only these types take part in the
// road network.
type SettlementType string

const (
	SettlementVillage SettlementType = "village"
	SettlementTown    SettlementType = "town"
	SettlementCity    SettlementType = "city"
	SettlementCapital SettlementType = "capital"
	SettlementFort    SettlementType = "fort"
	SettlementOutpost SettlementType = "outpost"
)

// SettlementTypes lists every supported type.
var SettlementTypes = []SettlementType{
	SettlementVillage, SettlementTown, SettlementCity,
	SettlementCapital, SettlementFort, SettlementOutpost,
}

// ParseSettlementType normalizes a catalog type string. The boolean is false
// for anything outside SettlementTypes, such as dungeons or ruins.
func ParseSettlementType(s string) (SettlementType, bool) {
	t := SettlementType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SettlementTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Importance is the cost divisor used when connecting settlements: capitals
// attract roads most strongly, villages least.
func (t SettlementType) Importance() float64 {
	switch t {
	case SettlementCapital:
		return 5
	case SettlementCity:
		return 4
	case SettlementTown:
		return 3
	case SettlementFort:
		return 2.5
	case SettlementOutpost:
		return 2
	default:
		return 1.5
	}
}

// Settlement is a catalog entry as seen by the road and location engines.
// The engines never create or mutate settlements.
type Settlement struct {
	ID           string         `json:"id"`
	CampaignSeed string         `json:"campaign_seed"`
	Name         string         `json:"name"`
	Type         SettlementType `json:"type"`
	Position     Vector2        `json:"position"`
	Importance   float64        `json:"importance"`
}

// NewSettlement fills Importance from the type.
func NewSettlement(id, campaignSeed, name string, typ SettlementType, pos Vector2) Settlement {
	return Settlement{
		ID:           id,
		CampaignSeed: campaignSeed,
		Name:         name,
		Type:         typ,
		Position:     pos,
		Importance:   typ.Importance(),
	}
}
