package services

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Services contains the connections to the external services.
type Services struct {
	Postgres *sqlx.DB
	Redis    *redis.Client
}

// InitServices connects to Postgres and Redis.
func InitServices(postgresURL, redisURL string) (*Services, error) {
	postgres, err := InitPostgres(postgresURL)
	if err != nil {
		return nil, err
	}

	redisClient, err := InitRedis(redisURL)
	if err != nil {
		return nil, err
	}

	return &Services{
		Postgres: postgres,
		Redis:    redisClient,
	}, nil
}
