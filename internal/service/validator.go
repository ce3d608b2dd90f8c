package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timmy/gamedata/internal/domain"
)

// Release date layouts, tried in order.
var releaseDateLayouts = []string{"Jan 2, 2006", "2006-01-02"}

// RowError describes why a row was rejected.
type RowError struct {
	Index  int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Index, e.Reason)
}

// GameRecord is a validated row: the scalar game fields plus the raw
// association cells to be resolved at persistence time.
type GameRecord struct {
	Index        int
	Game         domain.Game
	Associations map[domain.ReferenceKind]*string
}

// References returns the deduplicated entity names per kind, in first-seen order.
func (r *GameRecord) References() map[domain.ReferenceKind][]string {
	out := make(map[domain.ReferenceKind][]string, len(r.Associations))
	for kind, raw := range r.Associations {
		if raw == nil {
			continue
		}
		var names []string
		if kind == domain.KindLanguage {
			names = ParseLanguageList(*raw)
		} else {
			names = ParseNameList(*raw)
		}
		if names = dedupe(names); len(names) > 0 {
			out[kind] = names
		}
	}
	return out
}

var associationColumns = map[domain.ReferenceKind]string{
	domain.KindDeveloper: ColDevelopers,
	domain.KindPublisher: ColPublishers,
	domain.KindCategory:  ColCategories,
	domain.KindGenre:     ColGenres,
	domain.KindTag:       ColTags,
	domain.KindLanguage:  ColLanguages,
}

// ValidateRow converts a raw row into a GameRecord. The first failing rule
// decides the returned RowError. It has no side effects.
func ValidateRow(row Row) (*GameRecord, *RowError) {
	fail := func(reason string) (*GameRecord, *RowError) {
		return nil, &RowError{Index: row.Index, Reason: reason}
	}

	appID, ok := parseInt(row.Get(ColAppID))
	if !ok {
		return fail("AppID is missing or invalid")
	}

	name := row.Get(ColName)
	if name == nil {
		return fail("Name is missing")
	}

	rawDate := row.Get(ColReleaseDate)
	if rawDate == nil {
		return fail("Release date is missing")
	}
	releaseDate, ok := parseReleaseDate(*rawDate)
	if !ok {
		return fail("Invalid date format for release date: " + *rawDate)
	}

	game := domain.Game{
		AppID:        appID,
		Name:         *name,
		ReleaseDate:  releaseDate,
		RequiredAge:  intOr(row.Get(ColRequiredAge), 0),
		Price:        parsePrice(row.Get(ColPrice)),
		DLCCount:     intOr(row.Get(ColDLCCount), 0),
		AboutTheGame: stringOr(row.Get(ColAbout), ""),
		Windows:      parseBool(row.Get(ColWindows)),
		Mac:          parseBool(row.Get(ColMac)),
		Linux:        parseBool(row.Get(ColLinux)),
		Positive:     intOr(row.Get(ColPositive), 0),
		Negative:     intOr(row.Get(ColNegative), 0),
	}
	if rank, ok := parseInt(row.Get(ColScoreRank)); ok {
		game.ScoreRank = &rank
	}

	assoc := make(map[domain.ReferenceKind]*string, len(associationColumns))
	for kind, col := range associationColumns {
		assoc[kind] = row.Get(col)
	}

	return &GameRecord{Index: row.Index, Game: game, Associations: assoc}, nil
}

func parseInt(raw *string) (int, bool) {
	if raw == nil {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

func intOr(raw *string, def int) int {
	if v, ok := parseInt(raw); ok {
		return v
	}
	return def
}

func stringOr(raw *string, def string) string {
	if raw == nil {
		return def
	}
	return *raw
}

func parseBool(raw *string) bool {
	return raw != nil && strings.ToUpper(strings.TrimSpace(*raw)) == "TRUE"
}

func parsePrice(raw *string) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f).Round(2)
}

func parseReleaseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
