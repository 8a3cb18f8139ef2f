package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fbphub/playerdb/internal/domain/combined"
	"github.com/fbphub/playerdb/internal/domain/idcache"
	"github.com/fbphub/playerdb/internal/domain/managers"
	"github.com/fbphub/playerdb/internal/domain/teams"
	"github.com/fbphub/playerdb/internal/domain/upid"
	"github.com/fbphub/playerdb/internal/platform/logging"
	"github.com/fbphub/playerdb/internal/platform/textnorm"
)

// MergeInput gathers everything one merge run consumes. Sheet export and
// roster snapshot are required; the alias map and UPID database degrade
// gracefully when empty.
type MergeInput struct {
	UPIDDB    upid.Database
	AliasMap  teams.AliasMap
	Roster    RosterSnapshot
	SheetRows [][]string
	Managers  managers.Directory
}

// RunReport is the end-of-run summary written to the log.
type RunReport struct {
	Seeded        int
	SkippedRows   int
	RosterPlayers int
	Overlaid      int
	Created       int
	AmbiguousUPID int
	Unowned       int
	Backfilled    int
	Total         int
}

// MergeService produces combined_players.json from all sources. It runs
// three explicit passes (seed, roster overlay, id backfill) over a
// read-modify-merge of the previous output, so collaborator-owned fields
// and previously-assigned UPIDs survive every re-run.
type MergeService struct {
	combinedRepo combined.Repository
	cacheRepo    idcache.Repository
	validate     *validator.Validate
	logger       *logging.Logger
}

func NewMergeService(combinedRepo combined.Repository, cacheRepo idcache.Repository, logger *logging.Logger) *MergeService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MergeService{
		combinedRepo: combinedRepo,
		cacheRepo:    cacheRepo,
		validate:     validator.New(),
		logger:       logger,
	}
}

// sheetPlayerRow is the typed form of one sheet-export row, validated at
// the boundary before it enters merge logic.
type sheetPlayerRow struct {
	UPID         string `validate:"omitempty,numeric"`
	Name         string `validate:"required"`
	Team         string
	Position     string
	Manager      string
	ContractType string
	PlayerType   string
	YearsSimple  string
	Status       string
}

func (s *MergeService) Run(ctx context.Context, in MergeInput) ([]combined.Player, RunReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MergeService.Run")
	defer span.End()

	report := RunReport{}

	if len(in.SheetRows) == 0 {
		return nil, report, fmt.Errorf("%w: sheet export is empty, nothing to merge", ErrSourceUnavailable)
	}
	if len(in.Roster) == 0 {
		return nil, report, fmt.Errorf("%w: roster snapshot is empty, nothing to merge", ErrSourceUnavailable)
	}

	prev, err := s.combinedRepo.Load(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("load previous combined players: %w", err)
	}
	prevByKey := make(map[string]combined.Player, len(prev))
	prevByName := make(map[string][]combined.Player)
	for _, p := range prev {
		prevByKey[p.Key()] = p
		nameKey := textnorm.Key(p.Name)
		if nameKey != "" {
			prevByName[nameKey] = append(prevByName[nameKey], p)
		}
	}

	out := make(map[string]*combined.Player)
	byUPID := make(map[string]*combined.Player)
	byName := make(map[string][]*combined.Player)

	add := func(p *combined.Player) {
		out[p.Key()] = p
		if p.UPID != "" {
			byUPID[p.UPID] = p
		}
		nameKey := textnorm.Key(p.Name)
		if nameKey == "" {
			return
		}
		for _, existing := range byName[nameKey] {
			if existing == p {
				return
			}
		}
		byName[nameKey] = append(byName[nameKey], p)
	}

	// Seed pass: one record per sheet-export row, keyed by UPID when
	// present, else by normalized name.
	for _, row := range s.parseSheetRows(ctx, in.SheetRows, &report) {
		p := &combined.Player{
			UPID:         row.UPID,
			Name:         row.Name,
			Team:         row.Team,
			Position:     row.Position,
			PlayerType:   normalizePlayerType(row.PlayerType),
			ContractType: row.ContractType,
			YearsSimple:  row.YearsSimple,
			Status:       row.Status,
		}
		if abbr, ok := in.Managers.Resolve(row.Manager); ok {
			p.FBPTeam = abbr
			p.Manager = in.Managers.Name(abbr)
		}

		if existing, dup := out[p.Key()]; dup {
			report.SkippedRows++
			s.logger.WarnContext(ctx, "duplicate sheet row for player, keeping first",
				"key", p.Key(), "name", existing.Name)
			continue
		}
		add(p)
		report.Seeded++
	}

	// Roster overlay pass: Yahoo is authoritative for current ownership
	// of MLB players; the sheet stays authoritative for contract
	// metadata.
	rostered := make(map[string]struct{})
	for _, abbr := range sortedKeys(in.Roster) {
		for _, rp := range in.Roster[abbr] {
			report.RosterPlayers++
			target, created, skip := s.findOverlayTarget(ctx, rp, in, byName, byUPID, &report)
			if skip {
				continue
			}
			if target == nil {
				target = &combined.Player{Name: rp.Name}
				created = true
			}
			if created {
				if _, clash := out[target.Key()]; clash {
					report.SkippedRows++
					s.logger.WarnContext(ctx, "roster player collides with existing record, skipping",
						"name", rp.Name, "team", rp.Team)
					continue
				}
				target.PlayerType = combined.PlayerTypeMLB
				add(target)
				report.Created++
			}

			target.Team = firstNonEmpty(rp.Team, target.Team)
			target.Position = firstNonEmpty(rp.Position, target.Position)
			target.YahooID = firstNonEmpty(rp.YahooID, target.YahooID)
			target.Manager = in.Managers.Name(abbr)
			target.FBPTeam = abbr
			if target.PlayerType == "" {
				target.PlayerType = combined.PlayerTypeMLB
			}
			rostered[target.Key()] = struct{}{}
			report.Overlaid++
		}
	}

	// Ownership of MLB players reflects the latest snapshot: an MLB
	// record no roster carries is unowned now, whatever the sheet said.
	for _, p := range out {
		if p.PlayerType != combined.PlayerTypeMLB {
			continue
		}
		if _, ok := rostered[p.Key()]; ok {
			continue
		}
		if p.Manager != "" || p.FBPTeam != "" {
			p.Manager = ""
			p.FBPTeam = ""
			report.Unowned++
		}
	}

	// Stability and read-modify-merge against the previous output:
	// re-attach previously assigned UPIDs and carry collaborator-owned
	// fields through untouched. A player can change keys between runs in
	// either direction (a prospect gains a UPID, or a record loses one),
	// so a key miss falls back to the normalized-name index before the
	// record is treated as new.
	consumedPrev := make(map[string]struct{})
	for _, p := range out {
		prevRec, ok := prevByKey[p.Key()]
		if !ok && p.UPID == "" {
			if adopted, found := adoptPreviousUPID(p, prevByName, byUPID); found {
				delete(out, p.Key())
				p.UPID = adopted.UPID
				add(p)
				prevRec, ok = adopted, true
			}
		}
		if !ok && p.UPID != "" {
			// Newly assigned UPID: the previous run tracked this player
			// under a name key. Claim that record so the departed-record
			// loop below does not resurrect it as a duplicate identity.
			if nameOnly, found := previousNameOnlyRecord(p, prevByName); found {
				consumedPrev[nameOnly.Key()] = struct{}{}
				prevRec, ok = nameOnly, true
			}
		}
		if !ok {
			continue
		}
		carryCollaboratorFields(p, prevRec)
	}

	// Previous records absent from every current source persist; the
	// merge engine never forgets an identity it resolved before.
	for _, prevRec := range prev {
		if _, ok := consumedPrev[prevRec.Key()]; ok {
			continue
		}
		if _, ok := out[prevRec.Key()]; ok {
			continue
		}
		if prevRec.UPID != "" {
			if _, ok := byUPID[prevRec.UPID]; ok {
				continue
			}
		}
		keep := prevRec
		if keep.PlayerType == combined.PlayerTypeMLB && (keep.Manager != "" || keep.FBPTeam != "") {
			keep.Manager = ""
			keep.FBPTeam = ""
			report.Unowned++
		}
		add(&keep)
	}

	// ID backfill pass: attach resolved external ids from the cache.
	cache, err := s.cacheRepo.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "id cache unavailable, skipping backfill", "error", err)
	} else {
		for _, p := range out {
			if p.UPID == "" {
				continue
			}
			entry, ok := cache.Get(p.UPID)
			if !ok {
				continue
			}
			if entry.MLBID != 0 && p.MLBID != entry.MLBID {
				p.MLBID = entry.MLBID
				report.Backfilled++
			}
			if entry.BBRefID != "" && p.BBRefID == "" {
				p.BBRefID = entry.BBRefID
			}
		}
	}

	players := make([]combined.Player, 0, len(out))
	for _, p := range out {
		players = append(players, *p)
	}
	sortPlayers(players)
	report.Total = len(players)

	if err := s.combinedRepo.Save(ctx, players); err != nil {
		return nil, report, fmt.Errorf("save combined players: %w", err)
	}

	s.logger.InfoContext(ctx, "merge finished",
		"seeded", report.Seeded,
		"skipped_rows", report.SkippedRows,
		"roster_players", report.RosterPlayers,
		"overlaid", report.Overlaid,
		"created", report.Created,
		"ambiguous_upids", report.AmbiguousUPID,
		"unowned", report.Unowned,
		"backfilled_ids", report.Backfilled,
		"total", report.Total,
	)
	return players, report, nil
}

// findOverlayTarget locates the record a roster player belongs to: exact
// normalized name first, then a UPID guess through the name index,
// disambiguated by canonical team. A Resolved guess returns a new
// UPID-bearing record (created=true); ambiguity skips the roster player
// rather than guessing; Unresolved falls through to a UPID-less record
// built by the caller.
func (s *MergeService) findOverlayTarget(
	ctx context.Context,
	rp RosterPlayer,
	in MergeInput,
	byName map[string][]*combined.Player,
	byUPID map[string]*combined.Player,
	report *RunReport,
) (target *combined.Player, created, skip bool) {
	nameKey := textnorm.Key(rp.Name)
	if nameKey == "" {
		return nil, false, true
	}

	if matches := byName[nameKey]; len(matches) > 0 {
		if len(matches) == 1 {
			return matches[0], false, false
		}
		// Two seeded players share this name; the roster team decides.
		teamKey := textnorm.Key(in.AliasMap.Canonical(rp.Team))
		var hit *combined.Player
		for _, m := range matches {
			if textnorm.Key(in.AliasMap.Canonical(m.Team)) == teamKey {
				if hit != nil {
					hit = nil
					break
				}
				hit = m
			}
		}
		if hit != nil {
			return hit, false, false
		}
		report.AmbiguousUPID++
		s.logger.WarnContext(ctx, "roster player matches multiple seeded records, skipping",
			"name", rp.Name, "team", rp.Team, "yahoo_id", rp.YahooID)
		return nil, false, true
	}

	// Not seeded under this spelling: try the UPID name index.
	rec, candidates, outcome := in.UPIDDB.Disambiguate(rp.Name, rp.Team, in.AliasMap.Canonical)
	switch outcome {
	case upid.Resolved:
		if existing, ok := byUPID[rec.UPID]; ok {
			// Seeded under a different spelling of the same player.
			return existing, false, false
		}
		return &combined.Player{UPID: rec.UPID, Name: rp.Name}, true, false
	case upid.Ambiguous:
		report.AmbiguousUPID++
		s.logger.WarnContext(ctx, "roster player name maps to multiple upids, leaving upid unset",
			"name", rp.Name, "team", rp.Team, "candidates", candidates)
	}
	return nil, false, false
}

// adoptPreviousUPID re-attaches a UPID the previous run resolved for the
// same normalized name, provided it is unambiguous and not already in use.
func adoptPreviousUPID(p *combined.Player, prevByName map[string][]combined.Player, byUPID map[string]*combined.Player) (combined.Player, bool) {
	nameKey := textnorm.Key(p.Name)
	matches := prevByName[nameKey]
	var adopted combined.Player
	found := 0
	for _, m := range matches {
		if m.UPID == "" {
			continue
		}
		if _, taken := byUPID[m.UPID]; taken {
			continue
		}
		adopted = m
		found++
	}
	if found == 1 {
		return adopted, true
	}
	return combined.Player{}, false
}

// previousNameOnlyRecord finds the unique UPID-less record the previous
// run kept for this player's normalized name. More than one match means
// the name is genuinely shared and nothing is claimed.
func previousNameOnlyRecord(p *combined.Player, prevByName map[string][]combined.Player) (combined.Player, bool) {
	nameKey := textnorm.Key(p.Name)
	if nameKey == "" {
		return combined.Player{}, false
	}
	var match combined.Player
	found := 0
	for _, m := range prevByName[nameKey] {
		if m.UPID != "" {
			continue
		}
		match = m
		found++
	}
	if found == 1 {
		return match, true
	}
	return combined.Player{}, false
}

// carryCollaboratorFields implements the field-ownership contract: the
// merge engine fills only gaps in fields other writers own.
func carryCollaboratorFields(p *combined.Player, prevRec combined.Player) {
	p.Extra = prevRec.Extra
	p.ContractType = firstNonEmpty(p.ContractType, prevRec.ContractType)
	p.YearsSimple = firstNonEmpty(p.YearsSimple, prevRec.YearsSimple)
	p.Status = firstNonEmpty(p.Status, prevRec.Status)
	p.Bats = firstNonEmpty(p.Bats, prevRec.Bats)
	p.Throws = firstNonEmpty(p.Throws, prevRec.Throws)
	p.YahooID = firstNonEmpty(p.YahooID, prevRec.YahooID)
	if p.Age == 0 {
		p.Age = prevRec.Age
	}
	if p.MLBID == 0 {
		p.MLBID = prevRec.MLBID
	}
	if p.BBRefID == "" {
		p.BBRefID = prevRec.BBRefID
	}
}

func (s *MergeService) parseSheetRows(ctx context.Context, rows [][]string, report *RunReport) []sheetPlayerRow {
	if len(rows) < 2 {
		return nil
	}

	col := func(names ...string) int {
		for i, h := range rows[0] {
			for _, want := range names {
				if strings.EqualFold(trimCell(h), want) {
					return i
				}
			}
		}
		return -1
	}

	colUPID := col("UPID")
	colName := col("Player Name", "Name")
	colTeam := col("Team")
	colPos := col("Pos", "Position")
	colManager := col("Manager")
	colContract := col("Contract Type")
	colType := col("Player Type")
	colYears := col("Years (Simple)", "Years")
	colStatus := col("Status")

	out := make([]sheetPlayerRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r := sheetPlayerRow{
			UPID:         cell(row, colUPID),
			Name:         cell(row, colName),
			Team:         cell(row, colTeam),
			Position:     cell(row, colPos),
			Manager:      cell(row, colManager),
			ContractType: cell(row, colContract),
			PlayerType:   cell(row, colType),
			YearsSimple:  cell(row, colYears),
			Status:       cell(row, colStatus),
		}
		if r.Name == "" && r.UPID == "" {
			continue
		}
		if err := s.validate.Struct(r); err != nil {
			report.SkippedRows++
			s.logger.DebugContext(ctx, "skipping malformed sheet row", "name", r.Name, "upid", r.UPID, "error", err)
			continue
		}
		out = append(out, r)
	}
	return out
}

func normalizePlayerType(raw string) string {
	switch strings.ToUpper(trimCell(raw)) {
	case "MLB":
		return combined.PlayerTypeMLB
	case "FARM":
		return combined.PlayerTypeFarm
	}
	return trimCell(raw)
}

// sortPlayers orders the output deterministically so identical inputs
// produce byte-identical files: UPID-bearing records first in numeric
// UPID order, then the rest by normalized name.
func sortPlayers(players []combined.Player) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		switch {
		case a.UPID != "" && b.UPID == "":
			return true
		case a.UPID == "" && b.UPID != "":
			return false
		case a.UPID != "":
			na, errA := strconv.Atoi(a.UPID)
			nb, errB := strconv.Atoi(b.UPID)
			if errA == nil && errB == nil && na != nb {
				return na < nb
			}
			if a.UPID != b.UPID {
				return a.UPID < b.UPID
			}
		}
		return textnorm.Key(a.Name) < textnorm.Key(b.Name)
	})
}

func sortedKeys(m RosterSnapshot) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
