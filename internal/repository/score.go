package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
)

var ErrMatchNotFinished = errors.New("match is not finished")

const (
	fieldX     = "x"
	fieldO     = "o"
	fieldDraws = "draws"
)

// ScoreRepository keeps the running score of a pairing.
type ScoreRepository interface {
	Record(ctx context.Context, key string, result entity.MatchResult) (entity.Score, error)
	Get(ctx context.Context, key string) (entity.Score, error)
}

type dbScore struct {
	client *redis.Client
}

func NewScoreRepository(client *redis.Client) ScoreRepository {
	return &dbScore{
		client: client,
	}
}

func (that *dbScore) Record(ctx context.Context, key string, result entity.MatchResult) (entity.Score, error) {
	field, err := resultField(result)
	if err != nil {
		return entity.Score{}, err
	}

	scoreKey := "score:" + key

	var fields *redis.MapStringStringCmd
	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, scoreKey, field, 1)
		fields = pipe.HGetAll(ctx, scoreKey)
		return nil
	})
	if err != nil {
		return entity.Score{}, fmt.Errorf("failed to record result: %w", err)
	}

	return parseScore(fields.Val())
}

func (that *dbScore) Get(ctx context.Context, key string) (entity.Score, error) {
	fields, err := that.client.HGetAll(ctx, "score:"+key).Result()
	if err != nil {
		return entity.Score{}, fmt.Errorf("failed to get score: %w", err)
	}

	return parseScore(fields)
}

func resultField(result entity.MatchResult) (string, error) {
	switch {
	case result.IsDraw():
		return fieldDraws, nil
	case result.IsFinished() && result.Winner == entity.PlayerX:
		return fieldX, nil
	case result.IsFinished() && result.Winner == entity.PlayerO:
		return fieldO, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrMatchNotFinished, result)
	}
}

func parseScore(fields map[string]string) (entity.Score, error) {
	var score entity.Score

	for field, target := range map[string]*int{fieldX: &score.X, fieldO: &score.O, fieldDraws: &score.Draws} {
		raw, ok := fields[field]
		if !ok {
			continue
		}

		value, err := strconv.Atoi(raw)
		if err != nil {
			return entity.Score{}, fmt.Errorf("failed to parse %s counter: %w", field, err)
		}
		*target = value
	}

	return score, nil
}

type memoryScore struct {
	mu     sync.Mutex
	scores map[string]entity.Score
}

// NewMemoryScoreRepository is the store used when redis is disabled; scores live as long as the process.
func NewMemoryScoreRepository() ScoreRepository {
	return &memoryScore{
		scores: make(map[string]entity.Score),
	}
}

func (that *memoryScore) Record(_ context.Context, key string, result entity.MatchResult) (entity.Score, error) {
	if _, err := resultField(result); err != nil {
		return entity.Score{}, err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	score := that.scores[key]
	score.Add(result)
	that.scores[key] = score

	return score, nil
}

func (that *memoryScore) Get(_ context.Context, key string) (entity.Score, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.scores[key], nil
}
