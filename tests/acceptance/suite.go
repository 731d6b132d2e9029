package acceptance

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/suite"
	"github.com/vitalbite/wearable-sync/migrations"
	"github.com/vitalbite/wearable-sync/pkg/database"
)

const (
	postgresDSN = "host=localhost port=5432 user=wearable_sync password=wearable_sync_password dbname=wearable_sync_db sslmode=disable"
	redisAddr   = "localhost:6379"
)

// Suite represents the test suite for acceptance tests
type Suite struct {
	suite.Suite
	Postgres *database.Postgres
	Redis    *database.Redis
	App      *TestApp
}

func (s *Suite) SetupSuite() {
	pg, err := database.NewPostgres(postgresDSN)
	if err != nil {
		s.T().Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	redis, err := database.NewRedis(redisAddr, "", 0)
	if err != nil {
		pg.Close()
		s.T().Fatalf("Failed to connect to Redis: %v", err)
	}

	if err := pg.Migrate(migrations.FS); err != nil {
		pg.Close()
		redis.Close()
		s.T().Fatalf("Failed to run migrations: %v", err)
	}

	app, err := NewTestApp(pg, redis)
	if err != nil {
		_ = pg.Close()
		_ = redis.Close()
		s.T().Fatalf("Failed to create test app: %v", err)
	}

	s.Postgres = pg
	s.Redis = redis
	s.App = app
}

func (s *Suite) TearDownSuite() {
	if s.App != nil {
		_ = s.App.Close()
	}
	if s.Postgres != nil {
		_ = s.Postgres.Close()
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
}

func (s *Suite) SetupTest() {
	if err := s.cleanupDatabase(); err != nil {
		s.T().Fatalf("Failed to cleanup database: %v", err)
	}

	ctx := context.Background()
	if err := s.Redis.Client.FlushDB(ctx).Err(); err != nil {
		s.T().Fatalf("Failed to flush Redis: %v", err)
	}

	s.App.Provider.Reset()
}

func (s *Suite) cleanupDatabase() error {
	if _, err := s.Postgres.DB.Exec("TRUNCATE TABLE health_entries, connected_providers"); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
