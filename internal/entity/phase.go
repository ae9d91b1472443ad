package entity

// Phase is the per-player stage of the movement variant.
type Phase uint8

const (
	PhasePlacement Phase = iota
	PhaseMovement
)

func (p Phase) String() string {
	if p == PhaseMovement {
		return "movement"
	}
	return "placement"
}
