package entity

import (
	"errors"
	"fmt"
)

// Mark is the content of a board cell and doubles as the player identity.
type Mark uint8

const (
	Empty Mark = iota
	PlayerX
	PlayerO
)

var ErrUnknownMark = errors.New("unknown mark")

func (m Mark) String() string {
	switch m {
	case PlayerX:
		return "X"
	case PlayerO:
		return "O"
	default:
		return " "
	}
}

// Opponent returns the other player's mark. Empty has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return Empty
	}
}

func (m Mark) IsPlayer() bool {
	return m == PlayerX || m == PlayerO
}

// ParseMark accepts the wire symbols "X" and "O".
func ParseMark(symbol string) (Mark, error) {
	switch symbol {
	case "X", "x":
		return PlayerX, nil
	case "O", "o":
		return PlayerO, nil
	default:
		return Empty, fmt.Errorf("%w: %q", ErrUnknownMark, symbol)
	}
}

func (m Mark) slot() int {
	return int(m) - 1
}
