package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/slabtrack/cardstock/internal/domain/card"
	qb "github.com/slabtrack/cardstock/internal/platform/querybuilder"
)

type CardRepository struct {
	db *sqlx.DB
}

var cardSelectColumns = []string{
	"id",
	"number",
	"player_ids",
	"team_ids",
	"player_team_ids",
	"rookie",
	"autograph",
	"relic",
	"short_print",
	"print_run",
	"color_id",
	"notes",
	"created_at",
}

func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) InsertBatch(ctx context.Context, cards []card.Card) error {
	if len(cards) == 0 {
		return nil
	}
	for _, c := range cards {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("validate card %s: %w", c.Number, err)
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx insert cards: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, c := range cards {
		insertModel := cardTableModel{
			ID:            c.ID,
			Number:        c.Number,
			PlayerIDs:     pq.Int64Array(c.PlayerIDs),
			TeamIDs:       pq.Int64Array(c.TeamIDs),
			PlayerTeamIDs: pq.StringArray(c.PlayerTeamIDs),
			Rookie:        c.Rookie,
			Autograph:     c.Autograph,
			Relic:         c.Relic,
			ShortPrint:    c.ShortPrint,
			PrintRun:      nullableInt(c.PrintRun),
			ColorID:       nullableInt(c.ColorID),
			Notes:         c.Notes,
			CreatedAt:     c.CreatedAt,
		}

		query, args, err := qb.InsertModel("cards", insertModel, "ON CONFLICT (id) DO NOTHING")
		if err != nil {
			return fmt.Errorf("build insert card query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert card number=%s: %w", c.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert cards tx: %w", err)
	}

	return nil
}

func (r *CardRepository) List(ctx context.Context, filter card.ListFilter) ([]card.Card, error) {
	builder := qb.Select(cardSelectColumns...).From("cards")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		builder = builder.Where(qb.Expr("(number ILIKE ? OR notes ILIKE ?)", pattern, pattern))
	}
	builder = builder.OrderBy("created_at DESC", "id")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list cards query: %w", err)
	}

	var rows []cardTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	out := make([]card.Card, 0, len(rows))
	for _, row := range rows {
		out = append(out, card.Card{
			ID:            row.ID,
			Number:        row.Number,
			PlayerIDs:     []int64(row.PlayerIDs),
			TeamIDs:       []int64(row.TeamIDs),
			PlayerTeamIDs: []string(row.PlayerTeamIDs),
			Rookie:        row.Rookie,
			Autograph:     row.Autograph,
			Relic:         row.Relic,
			ShortPrint:    row.ShortPrint,
			PrintRun:      intPointer(row.PrintRun),
			ColorID:       intPointer(row.ColorID),
			Notes:         row.Notes,
			CreatedAt:     row.CreatedAt,
		})
	}

	return out, nil
}
