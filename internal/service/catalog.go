package service

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/timmy/gamedata/internal/domain"
	"github.com/timmy/gamedata/internal/repository"
)

const releaseDateLayout = "2006-01-02"

// GameResponse is the client view of a game with flattened associations.
type GameResponse struct {
	AppID              int             `json:"app_id"`
	Name               string          `json:"name"`
	ReleaseDate        string          `json:"release_date"`
	RequiredAge        int             `json:"required_age"`
	Price              float64         `json:"price"`
	DLCCount           int             `json:"dlc_count"`
	AboutTheGame       string          `json:"about_the_game"`
	SupportedLanguages []string        `json:"supported_languages"`
	Platforms          map[string]bool `json:"platforms"`
	PositiveReviews    int             `json:"positive_reviews"`
	NegativeReviews    int             `json:"negative_reviews"`
	ScoreRank          *int            `json:"score_rank"`
	Developers         []string        `json:"developers"`
	Publishers         []string        `json:"publishers"`
	Categories         []string        `json:"categories"`
	Genres             []string        `json:"genres"`
	Tags               []string        `json:"tags"`
}

// SearchResult is one page of a catalog query.
type SearchResult struct {
	Page         int            `json:"page"`
	PageSize     int            `json:"page_size"`
	TotalPages   int            `json:"total_pages"`
	TotalRecords int64          `json:"total_records"`
	Results      []GameResponse `json:"results"`
}

// CatalogService answers read-only catalog queries.
type CatalogService struct {
	games *repository.GameRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(games *repository.GameRepository) *CatalogService {
	return &CatalogService{games: games}
}

// Search validates the query and returns the requested page.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filter: optional predicates; nil matches every game.
//   - page: 1-based page and page size.
//
// Returns:
//   - *SearchResult: page of games plus totals.
//   - error: *ValidationError for bad input, otherwise a storage error.
func (s *CatalogService) Search(ctx context.Context, filter *domain.FilterSet, page domain.Pagination) (*SearchResult, error) {
	f := domain.FilterSet{}
	if filter != nil {
		f = *filter
	}
	if len(f.Platforms) > 0 {
		platforms := make([]string, len(f.Platforms))
		for i, p := range f.Platforms {
			platforms[i] = strings.ToLower(strings.TrimSpace(p))
		}
		f.Platforms = platforms
	}

	if err := validateQuery(&f, &page); err != nil {
		return nil, &ValidationError{Err: err}
	}

	games, total, err := s.games.Search(ctx, &f, page)
	if err != nil {
		return nil, err
	}

	results := make([]GameResponse, 0, len(games))
	for i := range games {
		results = append(results, NewGameResponse(&games[i]))
	}
	return &SearchResult{
		Page:         page.Page,
		PageSize:     page.PageSize,
		TotalPages:   page.TotalPages(total),
		TotalRecords: total,
		Results:      results,
	}, nil
}

func validateQuery(f *domain.FilterSet, page *domain.Pagination) error {
	errs := validation.Errors{}
	merge := func(err error) error {
		if err == nil {
			return nil
		}
		ve, ok := err.(validation.Errors)
		if !ok {
			return err
		}
		for k, v := range ve {
			errs[k] = v
		}
		return nil
	}

	if err := merge(validation.ValidateStruct(page,
		validation.Field(&page.Page, validation.Required.Error("must be at least 1"), validation.Min(1)),
		validation.Field(&page.PageSize,
			validation.Required.Error("must be between 1 and 100"),
			validation.Min(1),
			validation.Max(domain.MaxPageSize),
		),
	)); err != nil {
		return err
	}

	platforms := make([]interface{}, len(domain.ValidPlatforms))
	for i, p := range domain.ValidPlatforms {
		platforms[i] = p
	}
	if err := merge(validation.ValidateStruct(f,
		validation.Field(&f.Platforms, validation.Each(
			validation.In(platforms...).Error("must be one of windows, mac, linux"),
		)),
	)); err != nil {
		return err
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// NewGameResponse flattens a game and its preloaded associations.
func NewGameResponse(g *domain.Game) GameResponse {
	resp := GameResponse{
		AppID:              g.AppID,
		Name:               g.Name,
		ReleaseDate:        g.ReleaseDate.UTC().Format(releaseDateLayout),
		RequiredAge:        g.RequiredAge,
		Price:              g.Price.InexactFloat64(),
		DLCCount:           g.DLCCount,
		AboutTheGame:       g.AboutTheGame,
		Platforms:          g.Platforms(),
		PositiveReviews:    g.Positive,
		NegativeReviews:    g.Negative,
		ScoreRank:          g.ScoreRank,
		SupportedLanguages: make([]string, 0, len(g.Languages)),
		Developers:         make([]string, 0, len(g.Developers)),
		Publishers:         make([]string, 0, len(g.Publishers)),
		Categories:         make([]string, 0, len(g.Categories)),
		Genres:             make([]string, 0, len(g.Genres)),
		Tags:               make([]string, 0, len(g.Tags)),
	}
	for _, v := range g.Languages {
		resp.SupportedLanguages = append(resp.SupportedLanguages, v.Name)
	}
	for _, v := range g.Developers {
		resp.Developers = append(resp.Developers, v.Name)
	}
	for _, v := range g.Publishers {
		resp.Publishers = append(resp.Publishers, v.Name)
	}
	for _, v := range g.Categories {
		resp.Categories = append(resp.Categories, v.Name)
	}
	for _, v := range g.Genres {
		resp.Genres = append(resp.Genres, v.Name)
	}
	for _, v := range g.Tags {
		resp.Tags = append(resp.Tags, v.Name)
	}
	return resp
}
