package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/team"
	"github.com/slabtrack/cardstock/internal/platform/id"
	"github.com/slabtrack/cardstock/internal/platform/normalize"
)

const defaultLinkWorkers = 4

// ImportService owns the in-flight import sessions. Each session holds the
// parsed rows of one uploaded checklist together with the resolution cache
// and the catalog candidate snapshots used to derive matches. All mutations
// to a session's rows go through one serialized apply path, so concurrent
// operator actions never interleave partial updates.
type ImportService struct {
	provider    CatalogProvider
	cardRepo    card.Repository
	publisher   ImportPublisher
	idGen       id.Generator
	logger      *slog.Logger
	now         func() time.Time
	linkWorkers int

	mu       sync.RWMutex
	sessions map[string]*importSession
}

func NewImportService(
	provider CatalogProvider,
	cardRepo card.Repository,
	publisher ImportPublisher,
	idGen id.Generator,
	logger *slog.Logger,
) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		provider:    provider,
		cardRepo:    cardRepo,
		publisher:   publisher,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
		linkWorkers: defaultLinkWorkers,
		sessions:    make(map[string]*importSession),
	}
}

// SetLinkWorkers overrides the fan-out used when confirming player-team
// links during commit. Values below one keep the default.
func (s *ImportService) SetLinkWorkers(workers int) {
	if workers > 0 {
		s.linkWorkers = workers
	}
}

type importSession struct {
	id             string
	organizationID string
	catalogID      string
	createdAt      time.Time

	// players and teams are the catalog candidate snapshots fetched at
	// session creation; matches on every row are derived from these.
	players []player.Player
	teams   []team.Team

	cache *EntityResolutionCache

	mu sync.Mutex
	// rows is kept ordered by SortOrder. Display orderings (sorted views,
	// search results) are derived copies and never reorder this slice.
	rows []card.ParsedRow
}

type CreateImportInput struct {
	OrganizationID string
	CatalogID      string
	Rows           []card.ParsedRow
	MaxWorkers     int
}

type ImportSessionInfo struct {
	SessionID      string        `json:"session_id"`
	OrganizationID string        `json:"organization_id"`
	CatalogID      string        `json:"catalog_id"`
	RowCount       int           `json:"row_count"`
	Summary        ImportSummary `json:"summary"`
	CreatedAt      time.Time     `json:"created_at"`
}

// CreateSession loads a parsed checklist into a new working set: it fetches
// the catalog candidates once, derives exact and fuzzy matches for every row
// concurrently, and registers the session for subsequent reconciliation
// calls.
func (s *ImportService) CreateSession(ctx context.Context, input CreateImportInput) (ImportSessionInfo, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.CreateSession")
	defer span.End()

	if s.provider == nil || s.idGen == nil {
		return ImportSessionInfo{}, fmt.Errorf("%w: import service is not fully configured", ErrDependencyUnavailable)
	}
	organizationID := strings.TrimSpace(input.OrganizationID)
	if organizationID == "" {
		return ImportSessionInfo{}, fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}
	catalogID := strings.TrimSpace(input.CatalogID)
	if catalogID == "" {
		return ImportSessionInfo{}, fmt.Errorf("%w: catalog id is required", ErrInvalidInput)
	}
	if len(input.Rows) == 0 {
		return ImportSessionInfo{}, fmt.Errorf("%w: at least one row is required", ErrInvalidInput)
	}

	rows := make([]card.ParsedRow, 0, len(input.Rows))
	seenOrders := make(map[int]struct{}, len(input.Rows))
	for _, row := range input.Rows {
		if err := row.Validate(); err != nil {
			return ImportSessionInfo{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if _, dup := seenOrders[row.SortOrder]; dup {
			return ImportSessionInfo{}, fmt.Errorf("%w: duplicate sort order %d", ErrInvalidInput, row.SortOrder)
		}
		seenOrders[row.SortOrder] = struct{}{}
		clone := row.Clone()
		for j := range clone.Players {
			padSelectedTeams(&clone.Players[j])
		}
		rows = append(rows, clone)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].SortOrder < rows[j].SortOrder
	})

	players, err := s.provider.SearchPlayers(ctx, catalogID)
	if err != nil {
		return ImportSessionInfo{}, fmt.Errorf("fetch catalog players catalog=%s: %w", catalogID, err)
	}
	teams, err := s.provider.SearchTeams(ctx, organizationID)
	if err != nil {
		return ImportSessionInfo{}, fmt.Errorf("fetch catalog teams organization=%s: %w", organizationID, err)
	}

	seedSessionMatches(rows, players, teams, input.MaxWorkers)

	sessionID, err := s.idGen.NewID()
	if err != nil {
		return ImportSessionInfo{}, fmt.Errorf("generate session id: %w", err)
	}

	sess := &importSession{
		id:             sessionID,
		organizationID: organizationID,
		catalogID:      catalogID,
		createdAt:      s.now().UTC(),
		players:        players,
		teams:          teams,
		cache:          NewEntityResolutionCache(),
		rows:           rows,
	}

	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.mu.Unlock()

	summary := Summarize(rows)
	s.logger.InfoContext(ctx, "import session created",
		slog.String("session_id", sessionID),
		slog.String("organization_id", organizationID),
		slog.String("catalog_id", catalogID),
		slog.Int("row_count", len(rows)),
		slog.Int("ready_count", summary.ReadyCount),
	)

	return ImportSessionInfo{
		SessionID:      sessionID,
		OrganizationID: organizationID,
		CatalogID:      catalogID,
		RowCount:       len(rows),
		Summary:        summary,
		CreatedAt:      sess.createdAt,
	}, nil
}

// Session reports metadata and the current readiness summary.
func (s *ImportService) Session(ctx context.Context, sessionID string) (ImportSessionInfo, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.Session")
	defer span.End()
	_ = ctx

	sess, err := s.session(sessionID)
	if err != nil {
		return ImportSessionInfo{}, err
	}

	rows := sess.snapshot()
	return ImportSessionInfo{
		SessionID:      sess.id,
		OrganizationID: sess.organizationID,
		CatalogID:      sess.catalogID,
		RowCount:       len(rows),
		Summary:        Summarize(rows),
		CreatedAt:      sess.createdAt,
	}, nil
}

// Rows returns deep copies of the working set in SortOrder order. Callers
// may mutate the result freely without affecting the session.
func (s *ImportService) Rows(ctx context.Context, sessionID string) ([]card.ParsedRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.Rows")
	defer span.End()
	_ = ctx

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.snapshot(), nil
}

// Row returns one row by its stable SortOrder key.
func (s *ImportService) Row(ctx context.Context, sessionID string, sortOrder int) (card.ParsedRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.Row")
	defer span.End()
	_ = ctx

	sess, err := s.session(sessionID)
	if err != nil {
		return card.ParsedRow{}, err
	}

	rows := sess.snapshot()
	idx := rowIndex(rows, sortOrder)
	if idx < 0 {
		return card.ParsedRow{}, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
	}
	return rows[idx], nil
}

// Search filters the working set by folded substring over card number, raw
// player names, team names and notes. The result preserves SortOrder order.
func (s *ImportService) Search(ctx context.Context, sessionID, query string) ([]card.ParsedRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.Search")
	defer span.End()
	_ = ctx

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	rows := sess.snapshot()
	query = strings.TrimSpace(query)
	if query == "" {
		return rows, nil
	}

	out := make([]card.ParsedRow, 0, len(rows))
	for _, row := range rows {
		if rowMatchesQuery(row, query) {
			out = append(out, row)
		}
	}
	return out, nil
}

// SortedByCardNumber returns a display ordering of the working set. Pure
// integer card numbers compare numerically ("2" before "10"), everything
// else compares as a plain string. SortOrder breaks ties and row identity
// is untouched.
func (s *ImportService) SortedByCardNumber(ctx context.Context, sessionID string, descending bool) ([]card.ParsedRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.SortedByCardNumber")
	defer span.End()
	_ = ctx

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	rows := sess.snapshot()
	sort.SliceStable(rows, func(i, j int) bool {
		less := cardNumberLess(rows[i], rows[j])
		if descending {
			return cardNumberLess(rows[j], rows[i])
		}
		return less
	})
	return rows, nil
}

// Summary aggregates readiness over the whole session.
func (s *ImportService) Summary(ctx context.Context, sessionID string) (ImportSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.Summary")
	defer span.End()
	_ = ctx

	sess, err := s.session(sessionID)
	if err != nil {
		return ImportSummary{}, err
	}
	return Summarize(sess.snapshot()), nil
}

// NextUnready finds the first not-ready row in card-number display order,
// for "jump to next problem" navigation. The second return is false when
// every row is ready.
func (s *ImportService) NextUnready(ctx context.Context, sessionID string) (card.ParsedRow, bool, error) {
	rows, err := s.SortedByCardNumber(ctx, sessionID, false)
	if err != nil {
		return card.ParsedRow{}, false, err
	}
	idx := FirstUnready(rows)
	if idx < 0 {
		return card.ParsedRow{}, false, nil
	}
	return rows[idx], true, nil
}

// ToggleFlag flips one boolean attribute on a row.
func (s *ImportService) ToggleFlag(ctx context.Context, sessionID string, sortOrder int, flag card.Flag) (card.ParsedRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.ToggleFlag")
	defer span.End()
	_ = ctx

	if _, ok := card.AllFlags[flag]; !ok {
		return card.ParsedRow{}, fmt.Errorf("%w: unknown flag %q", ErrInvalidInput, flag)
	}

	sess, err := s.session(sessionID)
	if err != nil {
		return card.ParsedRow{}, err
	}

	var updated card.ParsedRow
	err = sess.apply(func(rows []card.ParsedRow) ([]card.ParsedRow, error) {
		idx := rowIndex(rows, sortOrder)
		if idx < 0 {
			return nil, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
		}
		row := rows[idx].Clone()
		current, err := row.Flag(flag)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := row.SetFlag(flag, !current); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		rows[idx] = row
		updated = row.Clone()
		return rows, nil
	})
	if err != nil {
		return card.ParsedRow{}, err
	}
	return updated, nil
}

// SetField writes one scalar attribute on a row. Numeric fields take decimal
// strings; an empty value clears them.
func (s *ImportService) SetField(ctx context.Context, sessionID string, sortOrder int, field card.Field, value string) (card.ParsedRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.SetField")
	defer span.End()
	_ = ctx

	sess, err := s.session(sessionID)
	if err != nil {
		return card.ParsedRow{}, err
	}

	var updated card.ParsedRow
	err = sess.apply(func(rows []card.ParsedRow) ([]card.ParsedRow, error) {
		idx := rowIndex(rows, sortOrder)
		if idx < 0 {
			return nil, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
		}
		row := rows[idx].Clone()
		if err := setRowField(&row, field, value); err != nil {
			return nil, err
		}
		rows[idx] = row
		updated = row.Clone()
		return rows, nil
	})
	if err != nil {
		return card.ParsedRow{}, err
	}
	return updated, nil
}

// BulkSetField writes the same value to one field across many rows in a
// single serialized update. Either every target row is updated or none is.
func (s *ImportService) BulkSetField(ctx context.Context, sessionID string, sortOrders []int, field card.Field, value string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.BulkSetField")
	defer span.End()
	_ = ctx

	if len(sortOrders) == 0 {
		return 0, fmt.Errorf("%w: at least one row is required", ErrInvalidInput)
	}

	sess, err := s.session(sessionID)
	if err != nil {
		return 0, err
	}

	count := 0
	err = sess.apply(func(rows []card.ParsedRow) ([]card.ParsedRow, error) {
		for _, sortOrder := range sortOrders {
			idx := rowIndex(rows, sortOrder)
			if idx < 0 {
				return nil, fmt.Errorf("%w: row sort_order=%d", ErrNotFound, sortOrder)
			}
			row := rows[idx].Clone()
			if err := setRowField(&row, field, value); err != nil {
				return nil, err
			}
			rows[idx] = row
			count++
		}
		return rows, nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CloseSession discards the working set and its resolution cache.
func (s *ImportService) CloseSession(ctx context.Context, sessionID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.CloseSession")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: import session %s", ErrNotFound, sessionID)
	}

	sess.cache.Clear()
	s.logger.InfoContext(ctx, "import session closed", slog.String("session_id", sessionID))
	return nil
}

func (s *ImportService) session(sessionID string) (*importSession, error) {
	sessionID = strings.TrimSpace(sessionID)

	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: import session %s", ErrNotFound, sessionID)
	}
	return sess, nil
}

// apply is the single mutation entry point for a session's rows. The
// callback works on a deep copy and returns the replacement slice, so a
// callback that fails partway leaves the working set untouched.
func (sess *importSession) apply(fn func(rows []card.ParsedRow) ([]card.ParsedRow, error)) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	working := make([]card.ParsedRow, len(sess.rows))
	for i, row := range sess.rows {
		working[i] = row.Clone()
	}

	next, err := fn(working)
	if err != nil {
		return err
	}
	sess.rows = next
	return nil
}

// snapshot copies the rows for lock-free reading.
func (sess *importSession) snapshot() []card.ParsedRow {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	out := make([]card.ParsedRow, len(sess.rows))
	for i, row := range sess.rows {
		out[i] = row.Clone()
	}
	return out
}

// padSelectedTeams restores the parallel-array invariant between a mention's
// TeamNames and SelectedTeams. Callers constructing mentions by struct
// literal instead of NewPlayerMention may leave SelectedTeams short or nil.
func padSelectedTeams(m *card.PlayerMention) {
	if len(m.SelectedTeams) >= len(m.TeamNames) {
		return
	}
	padded := make([]*team.Team, len(m.TeamNames))
	copy(padded, m.SelectedTeams)
	m.SelectedTeams = padded
}

// rowIndex locates a row by its stable SortOrder key, never by position.
func rowIndex(rows []card.ParsedRow, sortOrder int) int {
	for i, row := range rows {
		if row.SortOrder == sortOrder {
			return i
		}
	}
	return -1
}

func rowMatchesQuery(row card.ParsedRow, query string) bool {
	if normalize.Contains(row.CardNumber, query) || normalize.Contains(row.Notes, query) {
		return true
	}
	for _, name := range row.TeamNames {
		if normalize.Contains(name, query) {
			return true
		}
	}
	for _, mention := range row.Players {
		if normalize.Contains(mention.Name, query) {
			return true
		}
		if mention.SelectedPlayer != nil && normalize.Contains(mention.SelectedPlayer.Name, query) {
			return true
		}
		for _, name := range mention.TeamNames {
			if normalize.Contains(name, query) {
				return true
			}
		}
	}
	return false
}

func cardNumberLess(a, b card.ParsedRow) bool {
	if c := compareCardNumbers(a.CardNumber, b.CardNumber); c != 0 {
		return c < 0
	}
	return a.SortOrder < b.SortOrder
}

// compareCardNumbers orders two card numbers. Pure integers compare
// numerically, so "2" < "10"; anything else compares as a case-folded
// string, so "RC-10" < "RC-2".
func compareCardNumbers(a, b string) int {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))

	aVal, aErr := strconv.ParseInt(a, 10, 64)
	bVal, bErr := strconv.ParseInt(b, 10, 64)
	if aErr == nil && bErr == nil {
		switch {
		case aVal < bVal:
			return -1
		case aVal > bVal:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

func setRowField(row *card.ParsedRow, field card.Field, value string) error {
	value = strings.TrimSpace(value)
	switch field {
	case card.FieldCardNumber:
		if value == "" {
			return fmt.Errorf("%w: card number cannot be empty", ErrInvalidInput)
		}
		row.CardNumber = value
	case card.FieldNotes:
		row.Notes = value
	case card.FieldPrintRun:
		parsed, err := parseOptionalInt(value)
		if err != nil {
			return fmt.Errorf("%w: print run: %v", ErrInvalidInput, err)
		}
		row.PrintRun = parsed
	case card.FieldColorID:
		parsed, err := parseOptionalInt(value)
		if err != nil {
			return fmt.Errorf("%w: color id: %v", ErrInvalidInput, err)
		}
		row.ColorID = parsed
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidInput, field)
	}
	return nil
}

func parseOptionalInt(value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("expected a decimal integer, got %q", value)
	}
	if parsed < 0 {
		return nil, fmt.Errorf("must not be negative")
	}
	return &parsed, nil
}
