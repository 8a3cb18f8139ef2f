package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fbphub/playerdb/internal/domain/combined"
	"github.com/fbphub/playerdb/internal/domain/idcache"
	"github.com/fbphub/playerdb/internal/domain/teams"
	"github.com/fbphub/playerdb/internal/domain/upid"
	"github.com/fbphub/playerdb/internal/platform/logging"
	"github.com/fbphub/playerdb/internal/platform/similarity"
	"github.com/fbphub/playerdb/internal/platform/textnorm"
)

// IDMatcherService resolves UPIDs to MLB person ids with minimal false
// positives. Resolution runs a fixed priority ladder and stops at the
// first unambiguous hit:
//
//  1. explicit Player ID Map sheet entry
//  2. exact name search against the Stats API, team-filtered
//  3. roster scan of the player's stated team
//  4. fuzzy name match against the season player dump
//  5. locally-synthesized BBRef id, provenance "generated"
//
// A player no method can resolve keeps a zero mlb_id; that is a normal
// terminal state, not an error.
type IDMatcherService struct {
	api       MLBStatsAPI
	idMap     RowSource
	cacheRepo idcache.Repository
	logger    *logging.Logger
	threshold float64
	season    int
	now       func() time.Time

	seasonDump   []MLBPerson
	seasonLoaded bool
	teamIDs      map[string]int
}

type MatcherOptions struct {
	// Limit caps the number of players processed this run; 0 means all.
	Limit int
	// DryRun resolves and reports without writing the cache.
	DryRun bool
}

// MatchStats is the end-of-run summary of one backfill pass. Every
// processed player lands in exactly one of Resolved, Ambiguous,
// Generated, Unresolved or Skipped.
type MatchStats struct {
	Processed  int
	Resolved   int
	Ambiguous  int
	Unresolved int
	Skipped    int
	FromIDMap  int
	Generated  int
	Conflicts  int
}

func NewIDMatcherService(
	api MLBStatsAPI,
	idMap RowSource,
	cacheRepo idcache.Repository,
	threshold float64,
	season int,
	logger *logging.Logger,
) *IDMatcherService {
	if logger == nil {
		logger = logging.Default()
	}
	if threshold <= 0 || threshold > 1 {
		threshold = similarity.DefaultThreshold
	}
	return &IDMatcherService{
		api:       api,
		idMap:     idMap,
		cacheRepo: cacheRepo,
		logger:    logger,
		threshold: threshold,
		season:    season,
		now:       time.Now,
	}
}

// BackfillMissing resolves external ids for every combined player that
// has a UPID record but no MLB id yet, and applies the results to the id
// cache under the never-downgrade policy.
func (s *IDMatcherService) BackfillMissing(
	ctx context.Context,
	db upid.Database,
	players []combined.Player,
	aliasMap teams.AliasMap,
	opts MatcherOptions,
) (*idcache.Cache, MatchStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IDMatcherService.BackfillMissing")
	defer span.End()

	stats := MatchStats{}

	cache, err := s.cacheRepo.Load(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("load id cache: %w", err)
	}

	idMap := s.loadIDMap(ctx)

	todo := make([]combined.Player, 0, len(players))
	for _, p := range players {
		if p.UPID == "" || p.MLBID != 0 {
			continue
		}
		if entry, ok := cache.Get(p.UPID); ok && entry.MLBID != 0 {
			continue
		}
		if _, ok := db.ByUPID[p.UPID]; !ok {
			continue
		}
		todo = append(todo, p)
	}
	sort.Slice(todo, func(i, j int) bool { return todo[i].UPID < todo[j].UPID })

	if opts.Limit > 0 && len(todo) > opts.Limit {
		todo = todo[:opts.Limit]
	}

	s.logger.InfoContext(ctx, "id backfill starting",
		"candidates", len(todo),
		"cache_entries", cache.Len(),
		"id_map_entries", len(idMap),
	)

	for _, p := range todo {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Processed++

		rec := db.ByUPID[p.UPID]
		entry, outcome, candidates, transient := s.resolve(ctx, rec, p, aliasMap, idMap)

		switch outcome {
		case upid.Resolved:
			stats.Resolved++
			if entry.MatchSource == idcache.SourceIDMap {
				stats.FromIDMap++
			}
		case upid.Ambiguous:
			stats.Ambiguous++
			s.logger.WarnContext(ctx, "ambiguous external id match, leaving unresolved",
				"upid", p.UPID,
				"name", rec.Name,
				"candidate_ids", candidates,
			)
			continue
		default:
			if transient {
				stats.Skipped++
				continue
			}
			// No authoritative match anywhere: synthesize a secondary id
			// so downstream reports still have a stable key.
			bbref := idcache.GenerateBBRefID(rec.Name, func(id string) bool {
				for _, e := range cache.Entries() {
					if e.BBRefID == id {
						return true
					}
				}
				return false
			})
			if bbref == "" {
				stats.Unresolved++
				continue
			}
			entry = idcache.Entry{
				UPID:        p.UPID,
				Name:        rec.Name,
				BBRefID:     bbref,
				MatchSource: idcache.SourceGenerated,
			}
			stats.Generated++
		}

		entry.UPID = p.UPID
		if entry.Name == "" {
			entry.Name = rec.Name
		}
		applied, conflict := cache.Apply(entry, s.now())
		if conflict {
			stats.Conflicts++
			existing, _ := cache.Get(p.UPID)
			s.logger.WarnContext(ctx, "refusing to overwrite cached id with equal-or-lower confidence match",
				"upid", p.UPID,
				"existing_mlb_id", existing.MLBID,
				"existing_source", string(existing.MatchSource),
				"new_mlb_id", entry.MLBID,
				"new_source", string(entry.MatchSource),
			)
		} else if applied {
			s.logger.DebugContext(ctx, "id cache entry applied",
				"upid", p.UPID,
				"mlb_id", entry.MLBID,
				"source", string(entry.MatchSource),
			)
		}
	}

	if !opts.DryRun {
		if err := s.cacheRepo.Save(ctx, cache); err != nil {
			return nil, stats, fmt.Errorf("save id cache: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "id backfill finished",
		"processed", stats.Processed,
		"resolved", stats.Resolved,
		"ambiguous", stats.Ambiguous,
		"unresolved", stats.Unresolved,
		"skipped", stats.Skipped,
		"from_id_map", stats.FromIDMap,
		"generated", stats.Generated,
		"conflicts", stats.Conflicts,
		"dry_run", opts.DryRun,
	)
	return cache, stats, nil
}

// resolve runs the priority ladder for one player. transient reports that
// every attempted API step failed, meaning the player should be skipped
// rather than counted unresolved.
func (s *IDMatcherService) resolve(
	ctx context.Context,
	rec upid.Record,
	p combined.Player,
	aliasMap teams.AliasMap,
	idMap map[string]int,
) (entry idcache.Entry, outcome upid.Outcome, candidateIDs []int, transient bool) {
	if mlbID, ok := idMap[rec.UPID]; ok && mlbID > 0 {
		return idcache.Entry{MLBID: mlbID, Name: rec.Name, MatchSource: idcache.SourceIDMap}, upid.Resolved, nil, false
	}

	names := candidateNames(rec, p)
	if len(names) == 0 {
		return idcache.Entry{}, upid.Unresolved, nil, false
	}
	nameKeys := make(map[string]struct{}, len(names))
	for _, n := range names {
		nameKeys[textnorm.Key(n)] = struct{}{}
	}

	canonicalTeam := aliasMap.Canonical(firstNonEmpty(rec.Team, p.Team))
	teamKey := ""
	if aliasMap.Known(firstNonEmpty(rec.Team, p.Team)) {
		teamKey = textnorm.Key(canonicalTeam)
	}

	apiErrors := 0
	apiSteps := 0

	// Exact search, aggregated across all candidate spellings.
	matched := make(map[int]MLBPerson)
	for _, name := range names {
		apiSteps++
		people, err := s.api.SearchPeople(ctx, name)
		if err != nil {
			apiErrors++
			s.logger.WarnContext(ctx, "people search failed, continuing", "name", name, "error", err)
			continue
		}
		for _, person := range people {
			if _, ok := nameKeys[textnorm.Key(person.FullName)]; !ok {
				continue
			}
			if teamKey != "" && person.CurrentTeam != "" {
				if textnorm.Key(aliasMap.Canonical(person.CurrentTeam)) != teamKey {
					continue
				}
			}
			matched[person.ID] = person
		}
	}

	switch len(matched) {
	case 1:
		for _, person := range matched {
			return entryFromPerson(person, idcache.SourceExact), upid.Resolved, nil, false
		}
	default:
		if len(matched) > 1 {
			// Prefer the single active player when retirees share the name.
			active := make([]MLBPerson, 0, 1)
			for _, person := range matched {
				if person.Active {
					active = append(active, person)
				}
			}
			if len(active) == 1 {
				return entryFromPerson(active[0], idcache.SourceExact), upid.Resolved, nil, false
			}
			candidateIDs = sortedIDs(matched)
		}
	}

	// Roster scan of the stated team.
	if teamKey != "" {
		if teamID, ok := s.lookupTeamID(ctx, aliasMap, teamKey); ok {
			apiSteps++
			roster, err := s.api.TeamRoster(ctx, teamID)
			if err != nil {
				apiErrors++
				s.logger.WarnContext(ctx, "team roster fetch failed, continuing", "team", canonicalTeam, "error", err)
			} else {
				hits := make([]MLBPerson, 0, 1)
				for _, person := range roster {
					if _, ok := nameKeys[textnorm.Key(person.FullName)]; ok {
						hits = append(hits, person)
					}
				}
				if len(hits) == 1 {
					return entryFromPerson(hits[0], idcache.SourceAPIDirect), upid.Resolved, nil, false
				}
				if len(hits) > 1 {
					for _, h := range hits {
						candidateIDs = append(candidateIDs, h.ID)
					}
				}
			}
		}
	}

	// Fuzzy pass over the season dump.
	if dump := s.loadSeasonDump(ctx); len(dump) > 0 {
		apiSteps++
		best, second := bestFuzzyMatches(names, dump)
		if best.ratio >= s.threshold {
			if second.person.ID == 0 || second.person.ID == best.person.ID || second.ratio < s.threshold {
				return entryFromPerson(best.person, idcache.SourceFuzzy), upid.Resolved, nil, false
			}
			// Multiple candidates above threshold: a near-tie must not
			// auto-accept.
			return idcache.Entry{}, upid.Ambiguous, []int{best.person.ID, second.person.ID}, false
		}
	}

	if len(candidateIDs) > 0 {
		return idcache.Entry{}, upid.Ambiguous, candidateIDs, false
	}
	return idcache.Entry{}, upid.Unresolved, nil, apiSteps > 0 && apiErrors == apiSteps
}

func (s *IDMatcherService) loadIDMap(ctx context.Context) map[string]int {
	out := make(map[string]int)
	if s.idMap == nil {
		return out
	}

	rows, err := s.idMap.Rows(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "player id map sheet unavailable, continuing without it", "error", err)
		return out
	}
	if len(rows) == 0 {
		return out
	}

	upidCol, idCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(trimCell(h)) {
		case "upid":
			upidCol = i
		case "mlb id", "mlb_id":
			idCol = i
		}
	}
	if upidCol < 0 || idCol < 0 {
		s.logger.WarnContext(ctx, "player id map sheet missing UPID or MLB ID column, ignoring")
		return out
	}

	for _, row := range rows[1:] {
		id := cell(row, upidCol)
		raw := cell(row, idCol)
		if id == "" || raw == "" {
			continue
		}
		mlbID, err := strconv.Atoi(raw)
		if err != nil || mlbID <= 0 {
			continue
		}
		out[id] = mlbID
	}
	return out
}

func (s *IDMatcherService) lookupTeamID(ctx context.Context, aliasMap teams.AliasMap, teamKey string) (int, bool) {
	if s.teamIDs == nil {
		s.teamIDs = make(map[string]int)
		apiTeams, err := s.api.Teams(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "teams list fetch failed, roster step disabled this run", "error", err)
		}
		for _, t := range apiTeams {
			s.teamIDs[textnorm.Key(aliasMap.Canonical(t.Name))] = t.ID
			if t.Abbreviation != "" {
				key := textnorm.Key(aliasMap.Canonical(t.Abbreviation))
				if _, exists := s.teamIDs[key]; !exists {
					s.teamIDs[key] = t.ID
				}
			}
		}
	}
	id, ok := s.teamIDs[teamKey]
	return id, ok
}

func (s *IDMatcherService) loadSeasonDump(ctx context.Context) []MLBPerson {
	if s.seasonLoaded {
		return s.seasonDump
	}
	s.seasonLoaded = true

	season := s.season
	if season == 0 {
		season = s.now().Year()
	}
	dump, err := s.api.SeasonPlayers(ctx, season)
	if err != nil {
		s.logger.WarnContext(ctx, "season player dump fetch failed, fuzzy step disabled this run",
			"season", season, "error", err)
		return nil
	}
	s.seasonDump = dump
	return s.seasonDump
}

type fuzzyHit struct {
	person MLBPerson
	ratio  float64
}

// bestFuzzyMatches returns the best and second-best distinct players by
// similarity across all candidate spellings.
func bestFuzzyMatches(names []string, dump []MLBPerson) (best, second fuzzyHit) {
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(textnorm.FoldAccents(strings.TrimSpace(n)))
	}

	for _, person := range dump {
		full := strings.ToLower(textnorm.FoldAccents(person.FullName))
		ratio := 0.0
		for _, n := range lowered {
			if r := similarity.Ratio(n, full); r > ratio {
				ratio = r
			}
		}
		switch {
		case ratio > best.ratio:
			if best.person.ID != person.ID {
				second = best
			}
			best = fuzzyHit{person: person, ratio: ratio}
		case ratio > second.ratio && person.ID != best.person.ID:
			second = fuzzyHit{person: person, ratio: ratio}
		}
	}
	return best, second
}

func candidateNames(rec upid.Record, p combined.Player) []string {
	names := make([]string, 0, 2+len(rec.AltNames))
	seen := make(map[string]struct{})
	for _, n := range append([]string{rec.Name, p.Name}, rec.AltNames...) {
		n = trimCell(n)
		if n == "" {
			continue
		}
		key := textnorm.Key(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, n)
	}
	return names
}

func entryFromPerson(person MLBPerson, source idcache.MatchSource) idcache.Entry {
	return idcache.Entry{
		MLBID:       person.ID,
		Name:        person.FullName,
		MatchSource: source,
	}
}

func sortedIDs(m map[int]MLBPerson) []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
