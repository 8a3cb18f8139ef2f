package jsonfile

import (
	"context"
	"os"

	"github.com/fbphub/playerdb/internal/domain/combined"
	"github.com/fbphub/playerdb/internal/domain/idcache"
	"github.com/fbphub/playerdb/internal/domain/teams"
	"github.com/fbphub/playerdb/internal/domain/upid"
)

// UPIDRepository keeps the last-known-good UPID database on disk.
type UPIDRepository struct {
	store *Store
	path  string
}

func NewUPIDRepository(store *Store, path string) *UPIDRepository {
	return &UPIDRepository{store: store, path: path}
}

func (r *UPIDRepository) Load(_ context.Context) (upid.Database, error) {
	db := upid.NewDatabase()
	if err := r.store.Read(r.path, &db); err != nil {
		return upid.Database{}, err
	}
	return db, nil
}

func (r *UPIDRepository) Save(_ context.Context, db upid.Database) error {
	return r.store.Write(r.path, db)
}

// TeamsRepository keeps the franchise alias map on disk.
type TeamsRepository struct {
	store *Store
	path  string
}

func NewTeamsRepository(store *Store, path string) *TeamsRepository {
	return &TeamsRepository{store: store, path: path}
}

func (r *TeamsRepository) Load(_ context.Context) (teams.AliasMap, error) {
	m := teams.NewAliasMap()
	if err := r.store.Read(r.path, &m); err != nil {
		return teams.AliasMap{}, err
	}
	return m, nil
}

func (r *TeamsRepository) Save(_ context.Context, m teams.AliasMap) error {
	return r.store.Write(r.path, m)
}

// IDCacheRepository persists the external-id cache as a upid-keyed map.
// A missing file yields an empty cache: the first matcher run starts
// from nothing.
type IDCacheRepository struct {
	store *Store
	path  string
}

func NewIDCacheRepository(store *Store, path string) *IDCacheRepository {
	return &IDCacheRepository{store: store, path: path}
}

func (r *IDCacheRepository) Load(_ context.Context) (*idcache.Cache, error) {
	m := make(map[string]idcache.Entry)
	if err := r.store.Read(r.path, &m); err != nil {
		if os.IsNotExist(err) {
			return idcache.NewCache(), nil
		}
		return nil, err
	}
	return idcache.FromMap(m), nil
}

func (r *IDCacheRepository) Save(_ context.Context, c *idcache.Cache) error {
	return r.store.Write(r.path, c.Map())
}

// CombinedRepository persists combined_players.json. A missing file
// yields an empty slice.
type CombinedRepository struct {
	store *Store
	path  string
}

func NewCombinedRepository(store *Store, path string) *CombinedRepository {
	return &CombinedRepository{store: store, path: path}
}

func (r *CombinedRepository) Load(_ context.Context) ([]combined.Player, error) {
	var players []combined.Player
	if err := r.store.Read(r.path, &players); err != nil {
		if os.IsNotExist(err) {
			return []combined.Player{}, nil
		}
		return nil, err
	}
	return players, nil
}

func (r *CombinedRepository) Save(_ context.Context, players []combined.Player) error {
	return r.store.Write(r.path, players)
}
