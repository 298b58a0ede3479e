package governance

import (
	"github.com/shopspring/decimal"

	"assembly-service/internal/model"
)

// Event payloads. Each governance event carries exactly one of these as Data.

type AgendaItemChange struct {
	Item       model.AgendaItem `json:"item"`
	FinalTally *Tally           `json:"final_tally,omitempty"`
}

type TallyChange struct {
	AgendaItemID uint   `json:"agenda_item_id"`
	Tally        *Tally `json:"tally"`
}

type StatusChange struct {
	AssemblyID uint                 `json:"assembly_id"`
	From       model.AssemblyStatus `json:"from,omitempty"`
	To         model.AssemblyStatus `json:"to"`
}

type AttendanceChange struct {
	UserID       uint `json:"user_id"`
	Present      bool `json:"present"`
	RegisteredBy uint `json:"registered_by"`
}

type BallotCast struct {
	AgendaItemID uint            `json:"agenda_item_id"`
	UserID       uint            `json:"user_id"`
	Option       string          `json:"option"`
	Coefficient  decimal.Decimal `json:"coefficient"`
}
