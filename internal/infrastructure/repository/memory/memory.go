// Package memory provides in-memory repositories for tests and dry runs.
package memory

import (
	"context"
	"os"
	"sync"

	"github.com/fbphub/playerdb/internal/domain/combined"
	"github.com/fbphub/playerdb/internal/domain/idcache"
	"github.com/fbphub/playerdb/internal/domain/teams"
	"github.com/fbphub/playerdb/internal/domain/upid"
)

type UPIDRepository struct {
	mu    sync.Mutex
	db    upid.Database
	saved bool
}

func NewUPIDRepository() *UPIDRepository { return &UPIDRepository{} }

func (r *UPIDRepository) Load(_ context.Context) (upid.Database, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.saved {
		return upid.Database{}, os.ErrNotExist
	}
	return r.db, nil
}

func (r *UPIDRepository) Save(_ context.Context, db upid.Database) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.db = db
	r.saved = true
	return nil
}

type TeamsRepository struct {
	mu    sync.Mutex
	m     teams.AliasMap
	saved bool
}

func NewTeamsRepository() *TeamsRepository { return &TeamsRepository{} }

func (r *TeamsRepository) Load(_ context.Context) (teams.AliasMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.saved {
		return teams.AliasMap{}, os.ErrNotExist
	}
	return r.m, nil
}

func (r *TeamsRepository) Save(_ context.Context, m teams.AliasMap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m = m
	r.saved = true
	return nil
}

type IDCacheRepository struct {
	mu      sync.Mutex
	entries map[string]idcache.Entry
}

func NewIDCacheRepository() *IDCacheRepository {
	return &IDCacheRepository{entries: make(map[string]idcache.Entry)}
}

func (r *IDCacheRepository) Load(_ context.Context) (*idcache.Cache, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return idcache.FromMap(r.entries), nil
}

func (r *IDCacheRepository) Save(_ context.Context, c *idcache.Cache) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = c.Map()
	return nil
}

type CombinedRepository struct {
	mu      sync.Mutex
	players []combined.Player
}

func NewCombinedRepository() *CombinedRepository { return &CombinedRepository{} }

func (r *CombinedRepository) Load(_ context.Context) ([]combined.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]combined.Player, len(r.players))
	copy(out, r.players)
	return out, nil
}

func (r *CombinedRepository) Save(_ context.Context, players []combined.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = make([]combined.Player, len(players))
	copy(r.players, players)
	return nil
}
