package model

type PotState int

const (
	PotStateCreated PotState = 0
	PotStateCharged PotState = 10
	PotStateTicking PotState = 20
	PotStateStolen  PotState = 30
	PotStatePaid    PotState = 40
)

func (self PotState) String() string {
	switch self {
	case PotStateCreated:
		return "Created"
	case PotStateCharged:
		return "Charged"
	case PotStateTicking:
		return "Ticking"
	case PotStateStolen:
		return "Stolen"
	case PotStatePaid:
		return "Paid"
	default:
		return "Unknown"
	}
}
