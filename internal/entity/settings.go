package entity

import (
	"errors"
	"fmt"
	"time"
)

type VariantKind string

const (
	VariantUnconstrained VariantKind = "unconstrained"
	VariantFIFO          VariantKind = "fifo"
	VariantMovement      VariantKind = "movement"
)

type Opponent string

const (
	OpponentHuman    Opponent = "human"
	OpponentComputer Opponent = "computer"
	OpponentRemote   Opponent = "remote"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var (
	ErrUnknownVariant    = errors.New("unknown rule variant")
	ErrUnknownOpponent   = errors.New("unknown opponent type")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

func ParseVariant(value string) (VariantKind, error) {
	switch kind := VariantKind(value); kind {
	case VariantUnconstrained, VariantFIFO, VariantMovement:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, value)
	}
}

func ParseOpponent(value string) (Opponent, error) {
	switch opponent := Opponent(value); opponent {
	case OpponentHuman, OpponentComputer, OpponentRemote:
		return opponent, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOpponent, value)
	}
}

func ParseDifficulty(value string) (Difficulty, error) {
	switch difficulty := Difficulty(value); difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return difficulty, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, value)
	}
}

// MatchSettings is the configuration consumed at match start.
type MatchSettings struct {
	BoardSize  int
	Variant    VariantKind
	Opponent   Opponent
	Difficulty Difficulty
	LocalMark  Mark
	BotDelay   time.Duration
}
