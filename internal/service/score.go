package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
)

type ScoreService interface {
	RecordResult(ctx context.Context, key string, result entity.MatchResult) (entity.Score, error)
	GetScore(ctx context.Context, key string) (entity.Score, error)
}

type scoreRepo interface {
	Record(ctx context.Context, key string, result entity.MatchResult) (entity.Score, error)
	Get(ctx context.Context, key string) (entity.Score, error)
}

type scoreService struct {
	logger    *slog.Logger
	scoreRepo scoreRepo
}

func NewScoreService(logger *slog.Logger, scoreRepo scoreRepo) ScoreService {
	return &scoreService{
		logger:    logger,
		scoreRepo: scoreRepo,
	}
}

// PairingKey is the same on both peers regardless of who hosts.
func PairingKey(first, second string) string {
	names := []string{strings.ToLower(first), strings.ToLower(second)}
	slices.Sort(names)
	return "pair:" + strings.Join(names, ":")
}

// LocalKey is stable across restarts of the process: one tally per player name and opponent kind.
func LocalKey(player string, opponent entity.Opponent, difficulty entity.Difficulty) string {
	key := "local:" + strings.ToLower(player) + ":" + string(opponent)
	if opponent == entity.OpponentComputer {
		key += ":" + string(difficulty)
	}
	return key
}

func (that *scoreService) RecordResult(ctx context.Context, key string, result entity.MatchResult) (entity.Score, error) {
	log := that.logger.With("method", "RecordResult", "key", key)

	score, err := that.scoreRepo.Record(ctx, key, result)
	if err != nil {
		return entity.Score{}, fmt.Errorf("failed to record match result: %w", err)
	}

	log.Info("match recorded", "result", result.String(), "x", score.X, "o", score.O, "draws", score.Draws)

	return score, nil
}

func (that *scoreService) GetScore(ctx context.Context, key string) (entity.Score, error) {
	log := that.logger.With("method", "GetScore", "key", key)

	score, err := that.scoreRepo.Get(ctx, key)
	if err != nil {
		return entity.Score{}, fmt.Errorf("failed to get score: %w", err)
	}

	log.Debug("score loaded", "x", score.X, "o", score.O, "draws", score.Draws)

	return score, nil
}
