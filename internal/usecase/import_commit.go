package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slabtrack/cardstock/internal/domain/card"
)

// ImportPublisher announces committed imports to downstream consumers, such
// as the export job queue. A nil publisher disables announcements.
type ImportPublisher interface {
	PublishImportCommitted(ctx context.Context, event ImportCommittedEvent) error
}

// ImportCommittedEvent is the payload published after a successful commit.
type ImportCommittedEvent struct {
	SessionID      string    `json:"session_id"`
	OrganizationID string    `json:"organization_id"`
	CatalogID      string    `json:"catalog_id"`
	CardIDs        []string  `json:"card_ids"`
	CardCount      int       `json:"card_count"`
	CommittedAt    time.Time `json:"committed_at"`
}

// CommitResult reports a finished import.
type CommitResult struct {
	SessionID string    `json:"session_id"`
	CardCount int       `json:"card_count"`
	CardIDs   []string  `json:"card_ids"`
	CommitAt  time.Time `json:"committed_at"`
}

// Commit turns a fully-ready working set into persisted catalog cards and
// closes the session. A session with any row still needing work is rejected
// wholesale; nothing is written.
func (s *ImportService) Commit(ctx context.Context, sessionID string) (CommitResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.Commit")
	defer span.End()

	if s.cardRepo == nil {
		return CommitResult{}, fmt.Errorf("%w: card repository is not configured", ErrDependencyUnavailable)
	}

	sess, err := s.session(sessionID)
	if err != nil {
		return CommitResult{}, err
	}

	rows := sess.snapshot()
	summary := Summarize(rows)
	if summary.NeedsWorkCount > 0 {
		return CommitResult{}, fmt.Errorf("%w: %d rows still need work", ErrInvalidInput, summary.NeedsWorkCount)
	}

	committedAt := s.now().UTC()
	cards := make([]card.Card, 0, len(rows))
	for _, row := range rows {
		cardID, err := s.idGen.NewID()
		if err != nil {
			return CommitResult{}, fmt.Errorf("generate card id: %w", err)
		}
		built := buildCard(cardID, row, committedAt)
		if err := built.Validate(); err != nil {
			return CommitResult{}, fmt.Errorf("%w: row sort_order=%d: %v", ErrInvalidInput, row.SortOrder, err)
		}
		cards = append(cards, built)
	}

	if err := s.cardRepo.InsertBatch(ctx, cards); err != nil {
		return CommitResult{}, fmt.Errorf("insert cards session=%s: %w", sess.id, err)
	}

	cardIDs := make([]string, len(cards))
	for i, c := range cards {
		cardIDs[i] = c.ID
	}

	if s.publisher != nil {
		event := ImportCommittedEvent{
			SessionID:      sess.id,
			OrganizationID: sess.organizationID,
			CatalogID:      sess.catalogID,
			CardIDs:        cardIDs,
			CardCount:      len(cardIDs),
			CommittedAt:    committedAt,
		}
		if err := s.publisher.PublishImportCommitted(ctx, event); err != nil {
			// Cards are already persisted; a publish failure only delays the
			// export pipeline, it must not fail the commit.
			s.logger.ErrorContext(ctx, "publish import committed event failed",
				slog.String("session_id", sess.id),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.CloseSession(ctx, sess.id); err != nil {
		s.logger.WarnContext(ctx, "close session after commit failed",
			slog.String("session_id", sess.id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "import committed",
		slog.String("session_id", sess.id),
		slog.Int("card_count", len(cards)),
	)

	return CommitResult{
		SessionID: sess.id,
		CardCount: len(cards),
		CardIDs:   cardIDs,
		CommitAt:  committedAt,
	}, nil
}

// buildCard flattens a resolved row into its committed form. Player order
// follows mention order; team and link ids are deduplicated across mentions.
func buildCard(cardID string, row card.ParsedRow, committedAt time.Time) card.Card {
	playerIDs := make([]int64, 0, len(row.Players))
	teamIDs := make([]int64, 0, len(row.Players))
	linkIDs := make([]string, 0, len(row.Players))
	seenTeams := make(map[int64]struct{})
	seenLinks := make(map[string]struct{})

	for _, mention := range row.Players {
		if mention.SelectedPlayer == nil {
			continue
		}
		playerIDs = append(playerIDs, mention.SelectedPlayer.ID)
		for _, link := range mention.SelectedLinks {
			if _, ok := seenTeams[link.TeamID]; !ok {
				seenTeams[link.TeamID] = struct{}{}
				teamIDs = append(teamIDs, link.TeamID)
			}
			if _, ok := seenLinks[link.ID]; !ok {
				seenLinks[link.ID] = struct{}{}
				linkIDs = append(linkIDs, link.ID)
			}
		}
	}
	for _, resolved := range row.TeamMatches.Exact {
		if _, ok := seenTeams[resolved.ID]; !ok {
			seenTeams[resolved.ID] = struct{}{}
			teamIDs = append(teamIDs, resolved.ID)
		}
	}

	built := card.Card{
		ID:            cardID,
		Number:        row.CardNumber,
		PlayerIDs:     playerIDs,
		TeamIDs:       teamIDs,
		PlayerTeamIDs: linkIDs,
		Rookie:        row.Rookie,
		Autograph:     row.Autograph,
		Relic:         row.Relic,
		ShortPrint:    row.ShortPrint,
		Notes:         row.Notes,
		CreatedAt:     committedAt,
	}
	if row.PrintRun != nil {
		printRun := *row.PrintRun
		built.PrintRun = &printRun
	}
	if row.ColorID != nil {
		colorID := *row.ColorID
		built.ColorID = &colorID
	}
	return built
}
