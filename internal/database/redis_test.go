package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"movie-discovery-weather-recommender/internal/config"
)

func TestNewRedis_Disabled(t *testing.T) {
	_, err := NewRedis(context.Background(), config.RedisConfig{})
	assert.ErrorIs(t, err, ErrRedisDisabled)
}

func TestNewRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedis(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRedisDisabled)
}
