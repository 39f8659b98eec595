// Package checklist turns pasted tab-separated checklist text into parsed
// import rows. The format is what collectors copy out of spreadsheets:
//
//	number <TAB> players <TAB> teams <TAB> flags <TAB> print run <TAB> notes
//
// Only the number and players columns are required. Multiple players or
// teams in one cell are separated by "|"; a player may carry its own team
// list in parentheses, e.g. "Bo Jackson (Royals|Raiders)".
package checklist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/slabtrack/cardstock/internal/domain/card"
)

const (
	colNumber = iota
	colPlayers
	colTeams
	colFlags
	colPrintRun
	colNotes
)

// Parse converts pasted checklist text into rows with stable, 1-based sort
// orders. Blank lines are skipped, a leading header line is detected and
// dropped, and a malformed line fails the whole paste with its line number.
func Parse(text string) ([]card.ParsedRow, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	rows := make([]card.ParsedRow, 0, len(lines))
	sortOrder := 0
	for lineNo, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if sortOrder == 0 && isHeader(line) {
			continue
		}

		sortOrder++
		row, err := parseLine(sortOrder, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("checklist paste contains no rows")
	}
	return rows, nil
}

func parseLine(sortOrder int, line string) (card.ParsedRow, error) {
	cols := strings.Split(line, "\t")

	number := strings.TrimSpace(column(cols, colNumber))
	if number == "" {
		return card.ParsedRow{}, fmt.Errorf("card number is empty")
	}
	row := card.NewParsedRow(sortOrder, number)

	playersCell := strings.TrimSpace(column(cols, colPlayers))
	if playersCell == "" {
		return card.ParsedRow{}, fmt.Errorf("players column is empty")
	}
	for _, raw := range splitList(playersCell) {
		name, teamNames := splitPlayerTeams(raw)
		if name == "" {
			return card.ParsedRow{}, fmt.Errorf("player name is empty in %q", raw)
		}
		row.Players = append(row.Players, card.NewPlayerMention(name, teamNames))
	}

	for _, name := range splitList(column(cols, colTeams)) {
		row.TeamNames = append(row.TeamNames, name)
	}

	if err := applyFlags(&row, column(cols, colFlags)); err != nil {
		return card.ParsedRow{}, err
	}

	printRun, err := parsePrintRun(column(cols, colPrintRun))
	if err != nil {
		return card.ParsedRow{}, err
	}
	row.PrintRun = printRun

	row.Notes = strings.TrimSpace(column(cols, colNotes))
	return row, nil
}

// splitPlayerTeams separates a player's own team list from the name:
// "Bo Jackson (Royals|Raiders)" -> "Bo Jackson", ["Royals", "Raiders"].
func splitPlayerTeams(raw string) (string, []string) {
	raw = strings.TrimSpace(raw)
	open := strings.Index(raw, "(")
	if open < 0 || !strings.HasSuffix(raw, ")") {
		return raw, nil
	}

	name := strings.TrimSpace(raw[:open])
	inner := raw[open+1 : len(raw)-1]
	return name, splitList(inner)
}

func applyFlags(row *card.ParsedRow, cell string) error {
	for _, token := range strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	}) {
		switch strings.ToUpper(token) {
		case "RC", "ROOKIE":
			row.Rookie = true
		case "AUTO", "AUTOGRAPH":
			row.Autograph = true
		case "RELIC", "MEM":
			row.Relic = true
		case "SP", "SSP":
			row.ShortPrint = true
		default:
			return fmt.Errorf("unknown flag %q", token)
		}
	}
	return nil
}

// parsePrintRun tolerates the "/99" spreadsheet convention next to plain
// integers.
func parsePrintRun(cell string) (*int, error) {
	cell = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cell), "/"))
	if cell == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(cell)
	if err != nil || value <= 0 {
		return nil, fmt.Errorf("invalid print run %q", cell)
	}
	return &value, nil
}

func splitList(cell string) []string {
	parts := strings.Split(cell, "|")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func column(cols []string, idx int) string {
	if idx >= len(cols) {
		return ""
	}
	return cols[idx]
}

func isHeader(line string) bool {
	folded := strings.ToLower(line)
	return strings.Contains(folded, "card") && strings.Contains(folded, "player")
}
