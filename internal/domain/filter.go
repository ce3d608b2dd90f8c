package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FilterSet holds the optional predicates of a catalog query.
// Nil pointers and empty slices mean "no constraint".
type FilterSet struct {
	AppID       *int             `json:"app_id,omitempty"`
	Name        *string          `json:"name,omitempty"`
	ReleaseDate *time.Time       `json:"release_date,omitempty"`
	RequiredAge *int             `json:"required_age,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	DLCCount    *int             `json:"dlc_count,omitempty"`
	About       *string          `json:"about_the_game,omitempty"`
	Positive    *int             `json:"positive_reviews,omitempty"`
	Negative    *int             `json:"negative_reviews,omitempty"`
	ScoreRank   *int             `json:"score_rank,omitempty"`

	ReleaseDateFrom *time.Time       `json:"release_date_min,omitempty"`
	ReleaseDateTo   *time.Time       `json:"release_date_max,omitempty"`
	PriceMin        *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax        *decimal.Decimal `json:"price_max,omitempty"`
	PositiveMin     *int             `json:"positive_reviews_min,omitempty"`
	PositiveMax     *int             `json:"positive_reviews_max,omitempty"`
	NegativeMin     *int             `json:"negative_reviews_min,omitempty"`
	NegativeMax     *int             `json:"negative_reviews_max,omitempty"`

	Platforms []string `json:"platforms,omitempty"`

	Developers []string `json:"developers,omitempty"`
	Publishers []string `json:"publishers,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Languages  []string `json:"supported_languages,omitempty"`
}

// Relations returns the non-empty relationship filters keyed by kind.
func (f *FilterSet) Relations() map[ReferenceKind][]string {
	all := map[ReferenceKind][]string{
		KindDeveloper: f.Developers,
		KindPublisher: f.Publishers,
		KindCategory:  f.Categories,
		KindGenre:     f.Genres,
		KindTag:       f.Tags,
		KindLanguage:  f.Languages,
	}
	out := make(map[ReferenceKind][]string, len(all))
	for k, v := range all {
		if len(v) > 0 {
			out[k] = v
		}
	}
	return out
}

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination selects one page of a result set. Page is 1-based.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Offset returns the number of rows skipped before this page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns ceil(total / PageSize).
func (p Pagination) TotalPages(total int64) int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
}
