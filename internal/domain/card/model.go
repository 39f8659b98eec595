package card

import (
	"fmt"
	"strings"

	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
)

// Flag names a toggleable boolean attribute on a parsed row.
type Flag string

const (
	FlagRookie     Flag = "rc"
	FlagAutograph  Flag = "autograph"
	FlagRelic      Flag = "relic"
	FlagShortPrint Flag = "short_print"
)

var AllFlags = map[Flag]struct{}{
	FlagRookie:     {},
	FlagAutograph:  {},
	FlagRelic:      {},
	FlagShortPrint: {},
}

// Field names a scalar attribute editable one row at a time or in bulk.
type Field string

const (
	FieldCardNumber Field = "card_number"
	FieldPrintRun   Field = "print_run"
	FieldColorID    Field = "color_id"
	FieldNotes      Field = "notes"
)

var AllFields = map[Field]struct{}{
	FieldCardNumber: {},
	FieldPrintRun:   {},
	FieldColorID:    {},
	FieldNotes:      {},
}

// PlayerMatches partitions player candidates for one raw mention. Both
// buckets are always non-nil so consumers never need existence checks.
type PlayerMatches struct {
	Exact []player.Player
	Fuzzy []player.Player
}

// TeamMatches partitions team candidates the same way.
type TeamMatches struct {
	Exact []team.Team
	Fuzzy []team.Team
}

// PlayerMention is one raw player reference on a parsed row, together with
// its full reconciliation state.
type PlayerMention struct {
	// Name is the raw text from the source checklist, never rewritten.
	Name string

	Matches        PlayerMatches
	SelectedPlayer *player.Player

	// TeamNames are this mention's own team references, which may differ
	// from the card-level team set.
	TeamNames     []string
	TeamMatches   TeamMatches
	SelectedTeams []*team.Team // parallel to TeamNames

	// CheckTeams is the authoritative set of teams this player's card
	// association must be confirmed against. Supplied by the upstream
	// matcher; falls back to the card-level exact set when empty.
	CheckTeams TeamMatches

	// LinkMatches caches every confirmed (existing or just created) link.
	// SelectedLinks is the subset intended for import; both are updated on
	// every mutation path.
	LinkMatches   []playerteam.Link
	SelectedLinks []playerteam.Link
}

// NewPlayerMention builds a mention with fully-populated empty sub-structures.
func NewPlayerMention(name string, teamNames []string) PlayerMention {
	names := append([]string(nil), teamNames...)
	return PlayerMention{
		Name:          strings.TrimSpace(name),
		Matches:       PlayerMatches{Exact: []player.Player{}, Fuzzy: []player.Player{}},
		TeamNames:     names,
		TeamMatches:   TeamMatches{Exact: []team.Team{}, Fuzzy: []team.Team{}},
		SelectedTeams: make([]*team.Team, len(names)),
		CheckTeams:    TeamMatches{Exact: []team.Team{}, Fuzzy: []team.Team{}},
		LinkMatches:   []playerteam.Link{},
		SelectedLinks: []playerteam.Link{},
	}
}

// HasLink reports whether the mention already caches a confirmed link for the
// pair.
func (m PlayerMention) HasLink(playerID, teamID int64) bool {
	for _, link := range m.LinkMatches {
		if link.PlayerID == playerID && link.TeamID == teamID {
			return true
		}
	}
	return false
}

func (m PlayerMention) Clone() PlayerMention {
	out := m
	out.Matches = m.Matches.clone()
	out.TeamMatches = m.TeamMatches.clone()
	out.CheckTeams = m.CheckTeams.clone()
	out.TeamNames = append([]string(nil), m.TeamNames...)
	out.LinkMatches = append([]playerteam.Link(nil), m.LinkMatches...)
	out.SelectedLinks = append([]playerteam.Link(nil), m.SelectedLinks...)
	if m.SelectedPlayer != nil {
		selected := *m.SelectedPlayer
		selected.Teams = append([]player.TeamRef(nil), m.SelectedPlayer.Teams...)
		out.SelectedPlayer = &selected
	}
	out.SelectedTeams = make([]*team.Team, len(m.SelectedTeams))
	for i, t := range m.SelectedTeams {
		if t == nil {
			continue
		}
		selected := *t
		out.SelectedTeams[i] = &selected
	}
	return out
}

func (b PlayerMatches) clone() PlayerMatches {
	return PlayerMatches{
		Exact: append([]player.Player(nil), b.Exact...),
		Fuzzy: append([]player.Player(nil), b.Fuzzy...),
	}
}

func (b TeamMatches) clone() TeamMatches {
	return TeamMatches{
		Exact: append([]team.Team(nil), b.Exact...),
		Fuzzy: append([]team.Team(nil), b.Fuzzy...),
	}
}

// ParsedRow is one checklist line under review. Identity is SortOrder, which
// stays stable across re-sorts and filters of the display order; mutation
// lookups always key on it, never on slice position.
type ParsedRow struct {
	SortOrder  int
	CardNumber string

	Players []PlayerMention

	// TeamNames are card-level team mentions, independent of per-player
	// team references.
	TeamNames   []string
	TeamMatches TeamMatches

	Rookie     bool
	Autograph  bool
	Relic      bool
	ShortPrint bool

	PrintRun *int
	ColorID  *int
	Notes    string
}

// NewParsedRow builds a row with every nested structure populated to its
// empty default.
func NewParsedRow(sortOrder int, cardNumber string) ParsedRow {
	return ParsedRow{
		SortOrder:   sortOrder,
		CardNumber:  strings.TrimSpace(cardNumber),
		Players:     []PlayerMention{},
		TeamNames:   []string{},
		TeamMatches: TeamMatches{Exact: []team.Team{}, Fuzzy: []team.Team{}},
	}
}

func (r ParsedRow) Validate() error {
	if r.SortOrder <= 0 {
		return fmt.Errorf("row sort order is required")
	}
	if strings.TrimSpace(r.CardNumber) == "" {
		return fmt.Errorf("row card number is required")
	}

	return nil
}

func (r ParsedRow) Clone() ParsedRow {
	out := r
	out.TeamNames = append([]string(nil), r.TeamNames...)
	out.TeamMatches = r.TeamMatches.clone()
	out.Players = make([]PlayerMention, len(r.Players))
	for i, mention := range r.Players {
		out.Players[i] = mention.Clone()
	}
	if r.PrintRun != nil {
		printRun := *r.PrintRun
		out.PrintRun = &printRun
	}
	if r.ColorID != nil {
		colorID := *r.ColorID
		out.ColorID = &colorID
	}
	return out
}

// Flag reports the value of one toggleable attribute.
func (r ParsedRow) Flag(flag Flag) (bool, error) {
	switch flag {
	case FlagRookie:
		return r.Rookie, nil
	case FlagAutograph:
		return r.Autograph, nil
	case FlagRelic:
		return r.Relic, nil
	case FlagShortPrint:
		return r.ShortPrint, nil
	default:
		return false, fmt.Errorf("unknown card flag: %s", flag)
	}
}

// SetFlag writes one toggleable attribute in place.
func (r *ParsedRow) SetFlag(flag Flag, value bool) error {
	switch flag {
	case FlagRookie:
		r.Rookie = value
	case FlagAutograph:
		r.Autograph = value
	case FlagRelic:
		r.Relic = value
	case FlagShortPrint:
		r.ShortPrint = value
	default:
		return fmt.Errorf("unknown card flag: %s", flag)
	}
	return nil
}
