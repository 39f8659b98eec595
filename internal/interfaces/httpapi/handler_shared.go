package httpapi

import (
	"context"
	"time"

	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
	"github.com/slabtrack/cardstock/internal/usecase"
)

type playerTeamRefDTO struct {
	TeamID       int64  `json:"teamId"`
	PlayerTeamID string `json:"playerTeamId"`
	TeamName     string `json:"teamName"`
}

type playerDTO struct {
	ID    int64              `json:"id"`
	Name  string             `json:"name"`
	Teams []playerTeamRefDTO `json:"teams,omitempty"`
}

type teamDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Abbreviation   string `json:"abbreviation,omitempty"`
	PrimaryColor   string `json:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
}

type linkDTO struct {
	ID         string `json:"id"`
	PlayerID   int64  `json:"playerId"`
	TeamID     int64  `json:"teamId"`
	PlayerName string `json:"playerName,omitempty"`
	TeamName   string `json:"teamName,omitempty"`
}

type playerMatchesDTO struct {
	Exact []playerDTO `json:"exact"`
	Fuzzy []playerDTO `json:"fuzzy"`
}

type teamMatchesDTO struct {
	Exact []teamDTO `json:"exact"`
	Fuzzy []teamDTO `json:"fuzzy"`
}

type playerMentionDTO struct {
	Name           string           `json:"name"`
	Matches        playerMatchesDTO `json:"matches"`
	SelectedPlayer *playerDTO       `json:"selectedPlayer,omitempty"`
	TeamNames      []string         `json:"teamNames"`
	TeamMatches    teamMatchesDTO   `json:"teamMatches"`
	SelectedTeams  []*teamDTO       `json:"selectedTeams"`
	CheckTeams     teamMatchesDTO   `json:"checkTeams"`
	LinkMatches    []linkDTO        `json:"linkMatches"`
	SelectedLinks  []linkDTO        `json:"selectedLinks"`
}

type rowReadinessDTO struct {
	Ready   bool     `json:"ready"`
	Reasons []string `json:"reasons"`
}

type rowDTO struct {
	SortOrder   int                `json:"sortOrder"`
	CardNumber  string             `json:"cardNumber"`
	Players     []playerMentionDTO `json:"players"`
	TeamNames   []string           `json:"teamNames"`
	TeamMatches teamMatchesDTO     `json:"teamMatches"`
	Rookie      bool               `json:"rookie"`
	Autograph   bool               `json:"autograph"`
	Relic       bool               `json:"relic"`
	ShortPrint  bool               `json:"shortPrint"`
	PrintRun    *int               `json:"printRun,omitempty"`
	ColorID     *int               `json:"colorId,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	Readiness   rowReadinessDTO    `json:"readiness"`
}

type linkFailureDTO struct {
	PlayerID int64  `json:"playerId"`
	TeamID   int64  `json:"teamId"`
	Message  string `json:"message"`
}

type resolutionResultDTO struct {
	Row                rowDTO           `json:"row"`
	PropagatedMentions int              `json:"propagatedMentions"`
	LinksCreated       int              `json:"linksCreated"`
	LinksConfirmed     int              `json:"linksConfirmed"`
	LinkFailures       []linkFailureDTO `json:"linkFailures"`
}

type cardDTO struct {
	ID            string   `json:"id"`
	Number        string   `json:"number"`
	PlayerIDs     []int64  `json:"playerIds"`
	TeamIDs       []int64  `json:"teamIds"`
	PlayerTeamIDs []string `json:"playerTeamIds"`
	Rookie        bool     `json:"rookie"`
	Autograph     bool     `json:"autograph"`
	Relic         bool     `json:"relic"`
	ShortPrint    bool     `json:"shortPrint"`
	PrintRun      *int     `json:"printRun,omitempty"`
	ColorID       *int     `json:"colorId,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	CreatedAtUTC  string   `json:"created_at_utc"`
}

func rowToDTO(ctx context.Context, row card.ParsedRow) rowDTO {
	ctx, span := startSpan(ctx, "httpapi.rowToDTO")
	defer span.End()

	readiness := usecase.EvaluateRow(row)
	reasons := make([]string, 0, len(readiness.Reasons))
	for _, reason := range readiness.Reasons {
		reasons = append(reasons, string(reason))
	}

	mentions := make([]playerMentionDTO, 0, len(row.Players))
	for _, mention := range row.Players {
		mentions = append(mentions, mentionToDTO(ctx, mention))
	}

	return rowDTO{
		SortOrder:   row.SortOrder,
		CardNumber:  row.CardNumber,
		Players:     mentions,
		TeamNames:   append([]string{}, row.TeamNames...),
		TeamMatches: teamMatchesToDTO(row.TeamMatches),
		Rookie:      row.Rookie,
		Autograph:   row.Autograph,
		Relic:       row.Relic,
		ShortPrint:  row.ShortPrint,
		PrintRun:    row.PrintRun,
		ColorID:     row.ColorID,
		Notes:       row.Notes,
		Readiness: rowReadinessDTO{
			Ready:   readiness.Ready,
			Reasons: reasons,
		},
	}
}

func mentionToDTO(ctx context.Context, mention card.PlayerMention) playerMentionDTO {
	ctx, span := startSpan(ctx, "httpapi.mentionToDTO")
	defer span.End()

	selectedTeams := make([]*teamDTO, len(mention.SelectedTeams))
	for i, t := range mention.SelectedTeams {
		if t == nil {
			continue
		}
		dto := teamToDTO(*t)
		selectedTeams[i] = &dto
	}

	var selectedPlayer *playerDTO
	if mention.SelectedPlayer != nil {
		dto := playerToDTO(*mention.SelectedPlayer)
		selectedPlayer = &dto
	}

	return playerMentionDTO{
		Name:           mention.Name,
		Matches:        playerMatchesToDTO(mention.Matches),
		SelectedPlayer: selectedPlayer,
		TeamNames:      append([]string{}, mention.TeamNames...),
		TeamMatches:    teamMatchesToDTO(mention.TeamMatches),
		SelectedTeams:  selectedTeams,
		CheckTeams:     teamMatchesToDTO(mention.CheckTeams),
		LinkMatches:    linksToDTO(mention.LinkMatches),
		SelectedLinks:  linksToDTO(mention.SelectedLinks),
	}
}

func resolutionToDTO(ctx context.Context, result usecase.ResolutionResult) resolutionResultDTO {
	ctx, span := startSpan(ctx, "httpapi.resolutionToDTO")
	defer span.End()

	failures := make([]linkFailureDTO, 0, len(result.LinkFailures))
	for _, failure := range result.LinkFailures {
		failures = append(failures, linkFailureDTO{
			PlayerID: failure.PlayerID,
			TeamID:   failure.TeamID,
			Message:  failure.Message,
		})
	}

	return resolutionResultDTO{
		Row:                rowToDTO(ctx, result.Row),
		PropagatedMentions: result.PropagatedMentions,
		LinksCreated:       result.LinksCreated,
		LinksConfirmed:     result.LinksConfirmed,
		LinkFailures:       failures,
	}
}

func rowsToDTO(ctx context.Context, rows []card.ParsedRow) []rowDTO {
	items := make([]rowDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToDTO(ctx, row))
	}
	return items
}

func playerToDTO(v player.Player) playerDTO {
	teams := make([]playerTeamRefDTO, 0, len(v.Teams))
	for _, ref := range v.Teams {
		teams = append(teams, playerTeamRefDTO{
			TeamID:       ref.TeamID,
			PlayerTeamID: ref.PlayerTeamID,
			TeamName:     ref.TeamName,
		})
	}

	return playerDTO{
		ID:    v.ID,
		Name:  v.Name,
		Teams: teams,
	}
}

func teamToDTO(v team.Team) teamDTO {
	return teamDTO{
		ID:             v.ID,
		Name:           v.Name,
		Abbreviation:   v.Abbreviation,
		PrimaryColor:   v.PrimaryColor,
		SecondaryColor: v.SecondaryColor,
	}
}

func linksToDTO(links []playerteam.Link) []linkDTO {
	out := make([]linkDTO, 0, len(links))
	for _, link := range links {
		out = append(out, linkDTO{
			ID:         link.ID,
			PlayerID:   link.PlayerID,
			TeamID:     link.TeamID,
			PlayerName: link.PlayerName,
			TeamName:   link.TeamName,
		})
	}
	return out
}

func playerMatchesToDTO(matches card.PlayerMatches) playerMatchesDTO {
	exact := make([]playerDTO, 0, len(matches.Exact))
	for _, p := range matches.Exact {
		exact = append(exact, playerToDTO(p))
	}
	fuzzy := make([]playerDTO, 0, len(matches.Fuzzy))
	for _, p := range matches.Fuzzy {
		fuzzy = append(fuzzy, playerToDTO(p))
	}
	return playerMatchesDTO{Exact: exact, Fuzzy: fuzzy}
}

func teamMatchesToDTO(matches card.TeamMatches) teamMatchesDTO {
	exact := make([]teamDTO, 0, len(matches.Exact))
	for _, t := range matches.Exact {
		exact = append(exact, teamToDTO(t))
	}
	fuzzy := make([]teamDTO, 0, len(matches.Fuzzy))
	for _, t := range matches.Fuzzy {
		fuzzy = append(fuzzy, teamToDTO(t))
	}
	return teamMatchesDTO{Exact: exact, Fuzzy: fuzzy}
}

func cardToDTO(v card.Card) cardDTO {
	return cardDTO{
		ID:            v.ID,
		Number:        v.Number,
		PlayerIDs:     append([]int64{}, v.PlayerIDs...),
		TeamIDs:       append([]int64{}, v.TeamIDs...),
		PlayerTeamIDs: append([]string{}, v.PlayerTeamIDs...),
		Rookie:        v.Rookie,
		Autograph:     v.Autograph,
		Relic:         v.Relic,
		ShortPrint:    v.ShortPrint,
		PrintRun:      v.PrintRun,
		ColorID:       v.ColorID,
		Notes:         v.Notes,
		CreatedAtUTC:  v.CreatedAt.UTC().Format(time.RFC3339),
	}
}
