package repository

import (
	"github.com/vitalbite/wearable-sync/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	Connection ConnectionRepository
	Entry      EntryRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		Connection: NewConnectionRepository(db),
		Entry:      NewEntryRepository(db),
	}
}
