package session

import "fmt"

// Stage is a checkout pipeline step. Stages only move forward except when the
// buyer re-enters an earlier one, which resets everything downstream.
type Stage int

const (
	StageCartBuilding Stage = iota
	StageShippingChosen
	StageAddressCaptured
	StageFeeConfirmed
	StageConfirmationReviewed
	StagePaymentAuthorized
	StageCompleted
)

var stageNames = []string{
	"CART_BUILDING",
	"SHIPPING_CHOSEN",
	"ADDRESS_CAPTURED",
	"FEE_CONFIRMED",
	"CONFIRMATION_REVIEWED",
	"PAYMENT_AUTHORIZED",
	"COMPLETED",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// IsTerminal reports whether no further transition is possible
func (s Stage) IsTerminal() bool {
	return s == StageCompleted
}

func (s Stage) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stageNames) {
		return nil, fmt.Errorf("unknown stage %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

func (s *Stage) UnmarshalText(b []byte) error {
	for i, name := range stageNames {
		if name == string(b) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", string(b))
}
