package enums

import "fmt"

// MovementKind classifies an ingredient ledger row.
type MovementKind string

const (
	// MovementUsage is written by order placement and always carries a
	// negative delta plus the order reference.
	MovementUsage      MovementKind = "usage"
	MovementRestock    MovementKind = "restock"
	MovementAdjustment MovementKind = "adjustment"
)

var validMovementKinds = []MovementKind{
	MovementUsage,
	MovementRestock,
	MovementAdjustment,
}

func (k MovementKind) String() string {
	return string(k)
}

func (k MovementKind) IsValid() bool {
	for _, candidate := range validMovementKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func ParseMovementKind(value string) (MovementKind, error) {
	for _, candidate := range validMovementKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement kind %q", value)
}
