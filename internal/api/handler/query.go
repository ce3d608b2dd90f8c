package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"github.com/timmy/gamedata/internal/domain"
	"github.com/timmy/gamedata/internal/service"
)

// Searcher answers catalog queries.
type Searcher interface {
	Search(ctx context.Context, filter *domain.FilterSet, page domain.Pagination) (*service.SearchResult, error)
}

// QueryHandler handles GET /api/query.
type QueryHandler struct {
	catalog Searcher
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(catalog Searcher) *QueryHandler {
	return &QueryHandler{catalog: catalog}
}

// Query parses pagination and filters from the query string. List filters
// take repeated parameters, e.g. ?genres=Action&genres=RPG.
func (h *QueryHandler) Query(c *gin.Context) {
	p := &queryParams{c: c, errs: validation.Errors{}}

	page := domain.Pagination{
		Page:     p.intOr("page", domain.DefaultPage),
		PageSize: p.intOr("page_size", domain.DefaultPageSize),
	}
	filter := &domain.FilterSet{
		AppID:       p.integer("app_id"),
		Name:        p.text("name"),
		ReleaseDate: p.date("release_date"),
		RequiredAge: p.integer("required_age"),
		Price:       p.number("price"),
		DLCCount:    p.integer("dlc_count"),
		About:       p.text("about_the_game"),
		Positive:    p.integer("positive_reviews"),
		Negative:    p.integer("negative_reviews"),
		ScoreRank:   p.integer("score_rank"),

		ReleaseDateFrom: p.date("release_date_min"),
		ReleaseDateTo:   p.date("release_date_max"),
		PriceMin:        p.number("price_min"),
		PriceMax:        p.number("price_max"),
		PositiveMin:     p.integer("positive_reviews_min"),
		PositiveMax:     p.integer("positive_reviews_max"),
		NegativeMin:     p.integer("negative_reviews_min"),
		NegativeMax:     p.integer("negative_reviews_max"),

		Platforms:  p.list("platforms"),
		Developers: p.list("developers"),
		Publishers: p.list("publishers"),
		Categories: p.list("categories"),
		Genres:     p.list("genres"),
		Tags:       p.list("tags"),
		Languages:  p.list("supported_languages"),
	}

	if len(p.errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": p.errs})
		return
	}

	result, err := h.catalog.Search(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// queryParams reads typed query parameters and collects parse errors by name.
type queryParams struct {
	c    *gin.Context
	errs validation.Errors
}

func (p *queryParams) raw(name string) (string, bool) {
	v, ok := p.c.GetQuery(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *queryParams) text(name string) *string {
	v, ok := p.raw(name)
	if !ok {
		return nil
	}
	return &v
}

func (p *queryParams) integer(name string) *int {
	v, ok := p.raw(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs[name] = validation.NewError("validation_is_int", "must be an integer")
		return nil
	}
	return &n
}

func (p *queryParams) intOr(name string, def int) int {
	if n := p.integer(name); n != nil {
		return *n
	}
	return def
}

func (p *queryParams) number(name string) *decimal.Decimal {
	v, ok := p.raw(name)
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.errs[name] = validation.NewError("validation_is_number", "must be a number")
		return nil
	}
	return &d
}

func (p *queryParams) date(name string) *time.Time {
	v, ok := p.raw(name)
	if !ok {
		return nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		p.errs[name] = validation.NewError("validation_is_date", "must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}

func (p *queryParams) list(name string) []string {
	var out []string
	for _, v := range p.c.QueryArray(name) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
