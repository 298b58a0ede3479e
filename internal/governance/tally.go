package governance

import (
	"github.com/shopspring/decimal"

	"assembly-service/internal/model"
)

// OptionTally is the result of one option of an agenda item
type OptionTally struct {
	Count      int             `json:"count"`
	Weight     decimal.Decimal `json:"weight"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Tally is the result of an agenda item. Percentages are shares of the
// weight actually cast, not of the building total. Only a CLOSED item has
// an official tally.
type Tally struct {
	AgendaItemID uint                   `json:"agenda_item_id"`
	Status       model.AgendaStatus     `json:"status"`
	IsWeighted   bool                   `json:"is_weighted"`
	Official     bool                   `json:"official"`
	TotalVotes   int                    `json:"total_votes"`
	TotalWeight  decimal.Decimal        `json:"total_weight"`
	PerOption    map[string]OptionTally `json:"per_option"`
}

// ComputeTally aggregates votes of item. Weighted items count each ballot
// with its captured coefficient, unweighted items count heads.
func ComputeTally(item *model.AgendaItem, votes []model.Vote, precision int32) *Tally {
	t := &Tally{
		AgendaItemID: item.ID,
		Status:       item.Status,
		IsWeighted:   item.IsWeighted,
		Official:     item.Status == model.AgendaClosed,
		TotalWeight:  decimal.Zero,
		PerOption:    make(map[string]OptionTally, len(item.Options)),
	}
	for _, option := range item.Options {
		t.PerOption[option] = OptionTally{Weight: decimal.Zero, Percentage: decimal.Zero}
	}

	one := decimal.NewFromInt(1)
	for _, v := range votes {
		weight := one
		if item.IsWeighted {
			weight = v.Coefficient
		}
		o := t.PerOption[v.Option]
		o.Count++
		o.Weight = o.Weight.Add(weight)
		t.PerOption[v.Option] = o
		t.TotalVotes++
		t.TotalWeight = t.TotalWeight.Add(weight)
	}

	for option, o := range t.PerOption {
		o.Percentage = percentage(o.Weight, t.TotalWeight, precision)
		t.PerOption[option] = o
	}
	return t
}
