package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
)

// ResolutionResult reports what one reconciliation action changed: the
// updated row, how far the resolution propagated, and the link work that was
// performed on its behalf.
type ResolutionResult struct {
	Row                card.ParsedRow `json:"row"`
	PropagatedMentions int            `json:"propagated_mentions"`
	LinksCreated       int            `json:"links_created"`
	LinksConfirmed     int            `json:"links_confirmed"`
	LinkFailures       []LinkFailure  `json:"link_failures,omitempty"`
}

// LinkFailure is one pair whose remote confirmation failed. Failures never
// roll back sibling links that succeeded; the pair stays unconfirmed and the
// row stays not ready until retried.
type LinkFailure struct {
	PlayerID int64  `json:"player_id"`
	TeamID   int64  `json:"team_id"`
	Message  string `json:"message"`
}

type linkPair struct {
	playerID   int64
	teamID     int64
	playerName string
	teamName   string
}

type linkOutcome struct {
	pair    linkPair
	link    playerteam.Link
	created bool
	err     error
}

// SelectPlayer resolves one raw player mention to a catalog player. Link
// confirmations for the mention's check teams run concurrently against the
// remote catalog first; the working set is then updated in a single pass
// that also propagates the selection to every other unresolved mention with
// the same raw name.
func (s *ImportService) SelectPlayer(ctx context.Context, sessionID string, sortOrder, mentionIndex int, playerID int64) (ResolutionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.SelectPlayer")
	defer span.End()

	sess, err := s.session(sessionID)
	if err != nil {
		return ResolutionResult{}, err
	}

	rows := sess.snapshot()
	idx := rowIndex(rows, sortOrder)
	if idx < 0 {
		return ResolutionResult{}, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
	}
	if mentionIndex < 0 || mentionIndex >= len(rows[idx].Players) {
		return ResolutionResult{}, fmt.Errorf("%w: mention index %d out of range", ErrInvalidInput, mentionIndex)
	}
	mention := rows[idx].Players[mentionIndex]

	selected, ok := candidatePlayer(mention.Matches, playerID)
	if !ok {
		return ResolutionResult{}, fmt.Errorf("%w: player %d is not a candidate for %q", ErrNotFound, playerID, mention.Name)
	}

	// Associations already embedded in the catalog record never need a
	// remote call.
	sess.cache.SeedFromPlayer(selected)

	checkTeams := mention.CheckTeams.Exact
	if len(checkTeams) == 0 {
		checkTeams = rows[idx].TeamMatches.Exact
	}
	pairs := make([]linkPair, 0, len(checkTeams))
	for _, checkTeam := range checkTeams {
		if sess.cache.Has(selected.ID, checkTeam.ID) {
			continue
		}
		pairs = append(pairs, linkPair{
			playerID:   selected.ID,
			teamID:     checkTeam.ID,
			playerName: selected.Name,
			teamName:   checkTeam.Name,
		})
	}

	outcomes, err := s.confirmLinks(ctx, sess, pairs)
	if err != nil {
		return ResolutionResult{}, err
	}

	result := collectLinkWork(outcomes)
	result.LinksConfirmed += len(checkTeams) - len(pairs)

	rawName := mention.Name
	err = sess.apply(func(rows []card.ParsedRow) ([]card.ParsedRow, error) {
		idx := rowIndex(rows, sortOrder)
		if idx < 0 {
			return nil, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
		}
		if mentionIndex >= len(rows[idx].Players) {
			return nil, fmt.Errorf("%w: mention index %d out of range", ErrInvalidInput, mentionIndex)
		}

		row := rows[idx].Clone()
		target := &row.Players[mentionIndex]
		chosen := selected
		chosen.Teams = append([]player.TeamRef(nil), selected.Teams...)
		target.SelectedPlayer = &chosen
		if len(target.CheckTeams.Exact) == 0 {
			for _, fallback := range row.TeamMatches.Exact {
				appendExactTeam(&target.CheckTeams, fallback)
			}
		}
		attachCachedLinks(target, sess.cache)
		rows[idx] = row

		next, touched := broadcastPlayer(rows, rawName, selected, sess.cache)
		result.PropagatedMentions = touched
		result.Row = next[idx].Clone()
		return next, nil
	})
	if err != nil {
		return ResolutionResult{}, err
	}

	s.logger.InfoContext(ctx, "player mention resolved",
		slog.String("session_id", sess.id),
		slog.Int("sort_order", sortOrder),
		slog.Int64("player_id", selected.ID),
		slog.Int("propagated_mentions", result.PropagatedMentions),
		slog.Int("links_created", result.LinksCreated),
		slog.Int("link_failures", len(result.LinkFailures)),
	)
	return result, nil
}

// SelectTeam resolves one raw team reference on a player mention. Choosing a
// fuzzy candidate promotes it to exact. When the mention's player is already
// selected, the link for the new pair is confirmed immediately, and the team
// resolution propagates to every row and mention carrying the same raw team
// name.
func (s *ImportService) SelectTeam(ctx context.Context, sessionID string, sortOrder, mentionIndex, teamNameIndex int, teamID int64) (ResolutionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.SelectTeam")
	defer span.End()

	sess, err := s.session(sessionID)
	if err != nil {
		return ResolutionResult{}, err
	}

	rows := sess.snapshot()
	idx := rowIndex(rows, sortOrder)
	if idx < 0 {
		return ResolutionResult{}, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
	}
	if mentionIndex < 0 || mentionIndex >= len(rows[idx].Players) {
		return ResolutionResult{}, fmt.Errorf("%w: mention index %d out of range", ErrInvalidInput, mentionIndex)
	}
	mention := rows[idx].Players[mentionIndex]
	if teamNameIndex < 0 || teamNameIndex >= len(mention.TeamNames) {
		return ResolutionResult{}, fmt.Errorf("%w: team name index %d out of range", ErrInvalidInput, teamNameIndex)
	}

	resolved, ok := candidateTeam(mention.TeamMatches, teamID)
	if !ok {
		return ResolutionResult{}, fmt.Errorf("%w: team %d is not a candidate for %q", ErrNotFound, teamID, mention.TeamNames[teamNameIndex])
	}

	return s.resolveTeam(ctx, sess, mention.TeamNames[teamNameIndex], resolved, sortOrder)
}

// PromoteFuzzyTeam accepts a fuzzy card-level team candidate as the
// resolution for a raw team name. The promotion behaves exactly like a team
// selection: the candidate moves to the exact bucket everywhere the raw name
// appears and pending links are confirmed for mentions whose player is
// already selected.
func (s *ImportService) PromoteFuzzyTeam(ctx context.Context, sessionID string, sortOrder int, rawTeamName string, teamID int64) (ResolutionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.PromoteFuzzyTeam")
	defer span.End()

	sess, err := s.session(sessionID)
	if err != nil {
		return ResolutionResult{}, err
	}

	rawTeamName = strings.TrimSpace(rawTeamName)
	if rawTeamName == "" {
		return ResolutionResult{}, fmt.Errorf("%w: raw team name is required", ErrInvalidInput)
	}

	rows := sess.snapshot()
	idx := rowIndex(rows, sortOrder)
	if idx < 0 {
		return ResolutionResult{}, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
	}
	if !containsFold(rows[idx].TeamNames, rawTeamName) {
		return ResolutionResult{}, fmt.Errorf("%w: row sort_order=%d has no team name %q", ErrNotFound, sortOrder, rawTeamName)
	}

	resolved, ok := candidateTeam(rows[idx].TeamMatches, teamID)
	if !ok {
		return ResolutionResult{}, fmt.Errorf("%w: team %d is not a candidate for %q", ErrNotFound, teamID, rawTeamName)
	}

	return s.resolveTeam(ctx, sess, rawTeamName, resolved, sortOrder)
}

// CreatePlayer creates a new catalog player from a raw mention and selects
// it everywhere the raw name appears. The new player has no associations
// yet, so no link work runs here; affected rows surface their missing links
// through readiness until teams are confirmed.
func (s *ImportService) CreatePlayer(ctx context.Context, sessionID string, sortOrder, mentionIndex int) (ResolutionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.CreatePlayer")
	defer span.End()

	sess, err := s.session(sessionID)
	if err != nil {
		return ResolutionResult{}, err
	}

	rows := sess.snapshot()
	idx := rowIndex(rows, sortOrder)
	if idx < 0 {
		return ResolutionResult{}, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
	}
	if mentionIndex < 0 || mentionIndex >= len(rows[idx].Players) {
		return ResolutionResult{}, fmt.Errorf("%w: mention index %d out of range", ErrInvalidInput, mentionIndex)
	}
	rawName := rows[idx].Players[mentionIndex].Name

	firstName, lastName := player.SplitName(rawName)
	if firstName == "" {
		return ResolutionResult{}, fmt.Errorf("%w: mention name is empty", ErrInvalidInput)
	}

	created, err := s.provider.CreatePlayer(ctx, firstName, lastName)
	if err != nil {
		return ResolutionResult{}, fmt.Errorf("create catalog player %q: %w", rawName, err)
	}
	sess.cache.SeedFromPlayer(created)
	sess.addPlayer(created)

	var result ResolutionResult
	err = sess.apply(func(rows []card.ParsedRow) ([]card.ParsedRow, error) {
		idx := rowIndex(rows, sortOrder)
		if idx < 0 {
			return nil, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
		}
		if mentionIndex >= len(rows[idx].Players) {
			return nil, fmt.Errorf("%w: mention index %d out of range", ErrInvalidInput, mentionIndex)
		}

		row := rows[idx].Clone()
		target := &row.Players[mentionIndex]
		chosen := created
		chosen.Teams = append([]player.TeamRef(nil), created.Teams...)
		target.Matches.Exact = append(target.Matches.Exact, created)
		target.SelectedPlayer = &chosen
		rows[idx] = row

		next, touched := broadcastPlayer(rows, rawName, created, sess.cache)
		result.PropagatedMentions = touched
		result.Row = next[idx].Clone()
		return next, nil
	})
	if err != nil {
		return ResolutionResult{}, err
	}

	s.logger.InfoContext(ctx, "catalog player created from mention",
		slog.String("session_id", sess.id),
		slog.Int64("player_id", created.ID),
		slog.String("name", created.Name),
		slog.Int("propagated_mentions", result.PropagatedMentions),
	)
	return result, nil
}

// CreateTeam creates a new catalog team under the session's organization and
// resolves every occurrence of the raw team name to it, confirming links for
// mentions whose player is already selected.
func (s *ImportService) CreateTeam(ctx context.Context, sessionID string, sortOrder int, rawTeamName string) (ResolutionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.CreateTeam")
	defer span.End()

	sess, err := s.session(sessionID)
	if err != nil {
		return ResolutionResult{}, err
	}

	rawTeamName = strings.TrimSpace(rawTeamName)
	if rawTeamName == "" {
		return ResolutionResult{}, fmt.Errorf("%w: raw team name is required", ErrInvalidInput)
	}

	created, err := s.provider.CreateTeam(ctx, rawTeamName, sess.organizationID)
	if err != nil {
		return ResolutionResult{}, fmt.Errorf("create catalog team %q: %w", rawTeamName, err)
	}
	sess.addTeam(created)

	s.logger.InfoContext(ctx, "catalog team created from mention",
		slog.String("session_id", sess.id),
		slog.Int64("team_id", created.ID),
		slog.String("name", created.Name),
	)
	return s.resolveTeam(ctx, sess, rawTeamName, created, sortOrder)
}

// CreateLink explicitly confirms one player-team pair for a mention whose
// player is selected, then propagates the confirmed link to every other
// mention waiting on the same pair.
func (s *ImportService) CreateLink(ctx context.Context, sessionID string, sortOrder, mentionIndex int, teamID int64) (ResolutionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.CreateLink")
	defer span.End()

	sess, err := s.session(sessionID)
	if err != nil {
		return ResolutionResult{}, err
	}

	rows := sess.snapshot()
	idx := rowIndex(rows, sortOrder)
	if idx < 0 {
		return ResolutionResult{}, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
	}
	if mentionIndex < 0 || mentionIndex >= len(rows[idx].Players) {
		return ResolutionResult{}, fmt.Errorf("%w: mention index %d out of range", ErrInvalidInput, mentionIndex)
	}
	mention := rows[idx].Players[mentionIndex]
	if mention.SelectedPlayer == nil {
		return ResolutionResult{}, fmt.Errorf("%w: mention %q has no selected player", ErrInvalidInput, mention.Name)
	}
	resolved, ok := sess.teamByID(teamID)
	if !ok {
		return ResolutionResult{}, fmt.Errorf("%w: team %d", ErrNotFound, teamID)
	}
	selected := *mention.SelectedPlayer

	pairs := []linkPair(nil)
	if !sess.cache.Has(selected.ID, resolved.ID) {
		pairs = append(pairs, linkPair{
			playerID:   selected.ID,
			teamID:     resolved.ID,
			playerName: selected.Name,
			teamName:   resolved.Name,
		})
	}
	outcomes, err := s.confirmLinks(ctx, sess, pairs)
	if err != nil {
		return ResolutionResult{}, err
	}
	result := collectLinkWork(outcomes)
	if len(pairs) == 0 {
		result.LinksConfirmed++
	}

	link, ok := sess.cache.Lookup(selected.ID, resolved.ID)
	if !ok {
		// The single remote call failed; report it without touching rows.
		result.Row = rows[idx]
		return result, nil
	}

	err = sess.apply(func(rows []card.ParsedRow) ([]card.ParsedRow, error) {
		idx := rowIndex(rows, sortOrder)
		if idx < 0 {
			return nil, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
		}
		if mentionIndex >= len(rows[idx].Players) {
			return nil, fmt.Errorf("%w: mention index %d out of range", ErrInvalidInput, mentionIndex)
		}

		row := rows[idx].Clone()
		target := &row.Players[mentionIndex]
		appendExactTeam(&target.CheckTeams, resolved)
		appendLink(target, link)
		rows[idx] = row

		next, touched := broadcastLink(rows, link)
		result.PropagatedMentions = touched
		result.Row = next[idx].Clone()
		return next, nil
	})
	if err != nil {
		return ResolutionResult{}, err
	}
	return result, nil
}

// resolveTeam is the shared path behind team selection, fuzzy promotion and
// team creation: confirm pending links for the raw name remotely, then apply
// the team resolution to the whole working set in one pass.
func (s *ImportService) resolveTeam(ctx context.Context, sess *importSession, rawTeamName string, resolved team.Team, sortOrder int) (ResolutionResult, error) {
	rows := sess.snapshot()
	playerIDs := pendingLinkPairs(rows, rawTeamName, resolved, sess.cache)
	pairs := make([]linkPair, 0, len(playerIDs))
	for _, playerID := range playerIDs {
		pairs = append(pairs, linkPair{
			playerID:   playerID,
			teamID:     resolved.ID,
			playerName: playerNameByID(rows, playerID),
			teamName:   resolved.Name,
		})
	}

	outcomes, err := s.confirmLinks(ctx, sess, pairs)
	if err != nil {
		return ResolutionResult{}, err
	}
	result := collectLinkWork(outcomes)

	err = sess.apply(func(rows []card.ParsedRow) ([]card.ParsedRow, error) {
		next, touched := broadcastTeam(rows, rawTeamName, resolved, sess.cache)
		result.PropagatedMentions = touched

		idx := rowIndex(next, sortOrder)
		if idx < 0 {
			return nil, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
		}
		result.Row = next[idx].Clone()
		return next, nil
	})
	if err != nil {
		return ResolutionResult{}, err
	}

	s.logger.InfoContext(ctx, "team mention resolved",
		slog.String("session_id", sess.id),
		slog.String("raw_team_name", rawTeamName),
		slog.Int64("team_id", resolved.ID),
		slog.Int("propagated_mentions", result.PropagatedMentions),
		slog.Int("links_created", result.LinksCreated),
		slog.Int("link_failures", len(result.LinkFailures)),
	)
	return result, nil
}

// confirmLinks performs the remote link confirmations for a batch of pairs
// concurrently. Every successful or already-existing pair is recorded in the
// session cache before any row mutation happens; failures are collected, not
// fatal. Outcome order is deterministic regardless of scheduling.
func (s *ImportService) confirmLinks(ctx context.Context, sess *importSession, pairs []linkPair) ([]linkOutcome, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	workers := s.linkWorkers
	if workers <= 0 {
		workers = defaultLinkWorkers
	}
	if workers > len(pairs) {
		workers = len(pairs)
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create link worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan linkOutcome, len(pairs))

	var workersWG sync.WaitGroup
	for _, pair := range pairs {
		pair := pair
		workersWG.Add(1)
		if err := pool.Submit(func() {
			defer workersWG.Done()
			results <- s.confirmLink(ctx, pair)
		}); err != nil {
			workersWG.Done()
			return nil, fmt.Errorf("submit link task to worker pool: %w", err)
		}
	}

	workersWG.Wait()
	close(results)

	outcomes := make([]linkOutcome, 0, len(pairs))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	sort.SliceStable(outcomes, func(i, j int) bool {
		if outcomes[i].pair.playerID != outcomes[j].pair.playerID {
			return outcomes[i].pair.playerID < outcomes[j].pair.playerID
		}
		return outcomes[i].pair.teamID < outcomes[j].pair.teamID
	})

	for _, outcome := range outcomes {
		if outcome.err == nil {
			sess.cache.Record(outcome.link)
		}
	}
	return outcomes, nil
}

func (s *ImportService) confirmLink(ctx context.Context, pair linkPair) linkOutcome {
	link, err := s.provider.CreateOrFetchPlayerTeamLink(ctx, pair.playerID, pair.teamID)
	if err != nil {
		// A duplicate means the association is already on the books: the
		// pair is confirmed, it just never had a local id. Synthesize one.
		if errors.Is(err, ErrAlreadyExists) {
			return linkOutcome{
				pair: pair,
				link: playerteam.Existing(pair.playerID, pair.teamID, pair.playerName, pair.teamName),
			}
		}
		return linkOutcome{pair: pair, err: err}
	}
	return linkOutcome{pair: pair, link: link, created: true}
}

func collectLinkWork(outcomes []linkOutcome) ResolutionResult {
	result := ResolutionResult{}
	for _, outcome := range outcomes {
		switch {
		case outcome.err != nil:
			result.LinkFailures = append(result.LinkFailures, LinkFailure{
				PlayerID: outcome.pair.playerID,
				TeamID:   outcome.pair.teamID,
				Message:  outcome.err.Error(),
			})
		case outcome.created:
			result.LinksCreated++
		default:
			result.LinksConfirmed++
		}
	}
	return result
}

func candidatePlayer(matches card.PlayerMatches, playerID int64) (player.Player, bool) {
	for _, candidate := range matches.Exact {
		if candidate.ID == playerID {
			return candidate, true
		}
	}
	for _, candidate := range matches.Fuzzy {
		if candidate.ID == playerID {
			return candidate, true
		}
	}
	return player.Player{}, false
}

func candidateTeam(matches card.TeamMatches, teamID int64) (team.Team, bool) {
	for _, candidate := range matches.Exact {
		if candidate.ID == teamID {
			return candidate, true
		}
	}
	for _, candidate := range matches.Fuzzy {
		if candidate.ID == teamID {
			return candidate, true
		}
	}
	return team.Team{}, false
}

func playerNameByID(rows []card.ParsedRow, playerID int64) string {
	for _, row := range rows {
		for _, mention := range row.Players {
			if mention.SelectedPlayer != nil && mention.SelectedPlayer.ID == playerID {
				return mention.SelectedPlayer.Name
			}
		}
	}
	return ""
}

// addPlayer appends a newly created player to the session's candidate
// snapshot so later match derivations can see it.
func (sess *importSession) addPlayer(p player.Player) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.players = append(sess.players, p)
}

func (sess *importSession) addTeam(t team.Team) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.teams = append(sess.teams, t)
}

func (sess *importSession) teamByID(teamID int64) (team.Team, bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, t := range sess.teams {
		if t.ID == teamID {
			return t, true
		}
	}
	return team.Team{}, false
}
