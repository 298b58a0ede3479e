package governance

import (
	"github.com/shopspring/decimal"

	"assembly-service/internal/model"
	"assembly-service/internal/store"
)

var hundred = decimal.NewFromInt(100)

// Quorum is the weighted share of the building present at an assembly
type Quorum struct {
	AssemblyID         uint            `json:"assembly_id"`
	CurrentQuorum      decimal.Decimal `json:"current_quorum"`
	PresentCoefficient decimal.Decimal `json:"present_coefficient"`
	TotalCoefficient   decimal.Decimal `json:"total_coefficient"`
	PresentCount       int64           `json:"present_count"`
	RequiredQuorum     decimal.Decimal `json:"required_quorum"`
	QuorumReached      bool            `json:"quorum_reached"`
}

// QuorumTracker computes quorum from attendance and ownership
type QuorumTracker struct {
	resolver  CoefficientResolver
	precision int32
}

func NewQuorumTracker(precision int32) *QuorumTracker {
	return &QuorumTracker{precision: precision}
}

// Compute reads a consistent quorum for the assembly through ts
func (q *QuorumTracker) Compute(ts *store.TenantStore, assembly *model.Assembly) (*Quorum, error) {
	present, err := q.resolver.Present(ts, assembly.ID)
	if err != nil {
		return nil, err
	}
	total, err := q.resolver.Total(ts)
	if err != nil {
		return nil, err
	}
	count, err := ts.CountPresent(assembly.ID)
	if err != nil {
		return nil, err
	}

	current := percentage(present, total, q.precision)
	return &Quorum{
		AssemblyID:         assembly.ID,
		CurrentQuorum:      current,
		PresentCoefficient: present,
		TotalCoefficient:   total,
		PresentCount:       count,
		RequiredQuorum:     assembly.RequiredQuorum,
		QuorumReached:      total.IsPositive() && current.GreaterThanOrEqual(assembly.RequiredQuorum),
	}, nil
}

// percentage returns part/whole*100 rounded half-up, or zero when whole is zero
func percentage(part, whole decimal.Decimal, precision int32) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).DivRound(whole, precision)
}
