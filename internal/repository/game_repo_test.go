package repository_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/gamedata/internal/domain"
	"github.com/timmy/gamedata/internal/repository"
	"github.com/timmy/gamedata/internal/testutil"
	"gorm.io/gorm"
)

func newGame(appID int, name string) *domain.Game {
	return &domain.Game{
		AppID:       appID,
		Name:        name,
		ReleaseDate: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		Price:       decimal.Zero,
	}
}

type seedGame struct {
	game  *domain.Game
	links map[domain.ReferenceKind][]string
}

func seed(t *testing.T, db *gorm.DB, rows ...seedGame) {
	t.Helper()
	ctx := context.Background()
	games := repository.NewGameRepository(db)
	refs := repository.NewReferenceRepository(db)
	for _, row := range rows {
		require.NoError(t, games.Create(ctx, row.game))
		for kind, names := range row.links {
			for _, name := range names {
				ref, err := refs.Resolve(ctx, kind, name)
				require.NoError(t, err)
				_, err = refs.Link(ctx, kind, row.game.ID, ref.ID)
				require.NoError(t, err)
			}
		}
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestGameRepository_FindByAppID(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewGameRepository(db)
	ctx := context.Background()

	_, err := repo.FindByAppID(ctx, 10)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	game := newGame(10, "Counter-Strike")
	game.Price = decimal.RequireFromString("9.99")
	require.NoError(t, repo.Create(ctx, game))

	found, err := repo.FindByAppID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, game.ID, found.ID)
	assert.Equal(t, "Counter-Strike", found.Name)
	assert.True(t, decimal.RequireFromString("9.99").Equal(found.Price))
	assert.True(t, found.ReleaseDate.Equal(game.ReleaseDate))
}

func TestGameRepository_AppIDIsUnique(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewGameRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newGame(7, "a")))
	assert.Error(t, repo.Create(ctx, newGame(7, "b")))
}

func searchFixture(t *testing.T) *gorm.DB {
	db := testutil.NewDB(t)

	alpha := newGame(1, "Alpha Strike")
	alpha.Windows = true
	alpha.Positive = 100
	alpha.Price = decimal.RequireFromString("19.99")
	alpha.ReleaseDate = time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)
	alpha.AboutTheGame = "A tactical shooter"

	beta := newGame(2, "Beta Quest")
	beta.Mac = true
	beta.Positive = 50
	beta.Price = decimal.RequireFromString("4.99")
	beta.ReleaseDate = time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)

	gamma := newGame(3, "Gamma alpha")
	gamma.Linux = true
	gamma.Windows = true
	gamma.Positive = 10
	gamma.ReleaseDate = time.Date(2022, 8, 30, 0, 0, 0, 0, time.UTC)

	seed(t, db,
		seedGame{game: alpha, links: map[domain.ReferenceKind][]string{
			domain.KindGenre:     {"Action", "Strategy"},
			domain.KindDeveloper: {"Acme"},
			domain.KindLanguage:  {"English", "French"},
		}},
		seedGame{game: beta, links: map[domain.ReferenceKind][]string{
			domain.KindGenre:     {"RPG"},
			domain.KindDeveloper: {"Acme"},
			domain.KindLanguage:  {"German"},
		}},
		seedGame{game: gamma, links: map[domain.ReferenceKind][]string{
			domain.KindGenre:     {"Action"},
			domain.KindDeveloper: {"Other Studio"},
		}},
	)
	return db
}

func appIDs(games []domain.Game) []int {
	ids := make([]int, len(games))
	for i, g := range games {
		ids[i] = g.AppID
	}
	return ids
}

func TestGameRepository_Search(t *testing.T) {
	db := searchFixture(t)
	repo := repository.NewGameRepository(db)
	page := domain.Pagination{Page: 1, PageSize: 10}

	tests := []struct {
		name   string
		filter domain.FilterSet
		want   []int
	}{
		{name: "no filters", filter: domain.FilterSet{}, want: []int{1, 2, 3}},
		{name: "name substring case-insensitive", filter: domain.FilterSet{Name: strPtr("ALPHA")}, want: []int{1, 3}},
		{name: "about substring", filter: domain.FilterSet{About: strPtr("tactical")}, want: []int{1}},
		{name: "exact app id", filter: domain.FilterSet{AppID: intPtr(2)}, want: []int{2}},
		{name: "exact price", filter: domain.FilterSet{Price: decPtr("4.99")}, want: []int{2}},
		{name: "exact release date", filter: domain.FilterSet{ReleaseDate: datePtr(2021, 3, 15)}, want: []int{2}},
		{name: "price range", filter: domain.FilterSet{PriceMin: decPtr("1"), PriceMax: decPtr("10")}, want: []int{2}},
		{name: "positive lower bound only", filter: domain.FilterSet{PositiveMin: intPtr(50)}, want: []int{1, 2}},
		{name: "release date range", filter: domain.FilterSet{ReleaseDateFrom: datePtr(2020, 1, 1), ReleaseDateTo: datePtr(2021, 12, 31)}, want: []int{2}},
		{name: "inverted range is empty", filter: domain.FilterSet{PositiveMin: intPtr(100), PositiveMax: intPtr(10)}, want: []int{}},
		{name: "platforms are ORed", filter: domain.FilterSet{Platforms: []string{"mac", "linux"}}, want: []int{2, 3}},
		{name: "genre values are ORed", filter: domain.FilterSet{Genres: []string{"rpg", "strat"}}, want: []int{1, 2}},
		{name: "relation fields are ANDed", filter: domain.FilterSet{Genres: []string{"action"}, Developers: []string{"acme"}}, want: []int{1}},
		{name: "language filter", filter: domain.FilterSet{Languages: []string{"german"}}, want: []int{2}},
		{name: "no match", filter: domain.FilterSet{Tags: []string{"puzzle"}}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			games, total, err := repo.Search(context.Background(), &tt.filter, page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, appIDs(games))
			assert.EqualValues(t, len(tt.want), total)
		})
	}
}

func TestGameRepository_SearchPaginationAndPreload(t *testing.T) {
	db := searchFixture(t)
	repo := repository.NewGameRepository(db)
	ctx := context.Background()

	games, total, err := repo.Search(ctx, nil, domain.Pagination{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []int{3}, appIDs(games))

	games, total, err = repo.Search(ctx, nil, domain.Pagination{Page: 5, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Empty(t, games)

	games, _, err = repo.Search(ctx, &domain.FilterSet{AppID: intPtr(1)}, domain.Pagination{Page: 1, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Len(t, games[0].Genres, 2)
	assert.Len(t, games[0].Languages, 2)
	require.Len(t, games[0].Developers, 1)
	assert.Equal(t, "Acme", games[0].Developers[0].Name)
}

func TestGameRepository_SearchPageBeyondLast(t *testing.T) {
	db := searchFixture(t)
	repo := repository.NewGameRepository(db)

	tests := []struct {
		name string
		page domain.Pagination
	}{
		{name: "next page", page: domain.Pagination{Page: 2, PageSize: 3}},
		{name: "offset overflows", page: domain.Pagination{Page: math.MaxInt/2 + 1, PageSize: 4}},
		{name: "offset overflows by a larger page size", page: domain.Pagination{Page: math.MaxInt/10 + 2, PageSize: 10}},
		{name: "max int page", page: domain.Pagination{Page: math.MaxInt, PageSize: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			games, total, err := repo.Search(context.Background(), nil, tt.page)
			require.NoError(t, err)
			assert.EqualValues(t, 3, total)
			assert.Empty(t, games)
		})
	}
}
