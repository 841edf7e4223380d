package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory binds the repository set to one database handle.
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// GetRepositories returns the repositories bound to the factory's handle.
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// WithTx runs fn with repositories bound to a single transaction. The
// transaction is rolled back when fn returns an error.
func (f *Factory) WithTx(fn func(repos *Repositories) error) error {
	return f.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

var (
	globalFactory *Factory
	factoryMu     sync.RWMutex
)

// InitializeFactory installs the process wide factory.
func InitializeFactory(db *gorm.DB) *Factory {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	globalFactory = NewFactory(db)
	return globalFactory
}

// GetGlobalFactory panics when InitializeFactory was not called.
func GetGlobalFactory() *Factory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	if globalFactory == nil {
		panic("repository factory not initialized")
	}
	return globalFactory
}
