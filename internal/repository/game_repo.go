package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/timmy/gamedata/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameRepository handles catalog game persistence and queries.
type GameRepository struct {
	db *gorm.DB
}

// NewGameRepository creates a new GameRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *GameRepository: repository instance bound to db.
func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *GameRepository) WithTx(tx *gorm.DB) *GameRepository {
	return &GameRepository{db: tx}
}

// FindByAppID retrieves a game by its natural key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - appID: store application ID.
//
// Returns:
//   - *domain.Game: game record if found.
//   - error: ErrNotFound if no game has appID.
func (r *GameRepository) FindByAppID(ctx context.Context, appID int) (*domain.Game, error) {
	var game domain.Game
	if err := r.db.WithContext(ctx).Where("app_id = ?", appID).Take(&game).Error; err != nil {
		return nil, translate(err)
	}
	return &game, nil
}

// Create inserts a new game without touching its associations.
func (r *GameRepository) Create(ctx context.Context, game *domain.Game) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(game).Error
}

// Count returns the number of stored games.
func (r *GameRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Game{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Search returns one page of games matching filter along with the total match count.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filter: predicates to apply; nil matches everything.
//   - page: page to return; callers validate bounds.
//
// Returns:
//   - []domain.Game: games on the page with all associations preloaded.
//   - int64: number of matching games before paging.
//   - error: non-nil if a query fails.
func (r *GameRepository) Search(ctx context.Context, filter *domain.FilterSet, page domain.Pagination) ([]domain.Game, int64, error) {
	if filter == nil {
		filter = &domain.FilterSet{}
	}
	scope := filterScope(filter)

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Game{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count games: %w", err)
	}

	// Pages past the last one are empty; checked before Offset so a huge
	// page number cannot overflow into an earlier page.
	games := []domain.Game{}
	if total == 0 || page.Page > page.TotalPages(total) {
		return games, total, nil
	}

	query := r.db.WithContext(ctx).Model(&domain.Game{}).Scopes(scope).
		Order("games.id").
		Offset(page.Offset()).
		Limit(page.PageSize)
	for _, assoc := range []string{"Developers", "Publishers", "Categories", "Genres", "Tags", "Languages"} {
		query = query.Preload(assoc, func(db *gorm.DB) *gorm.DB { return db.Order("id") })
	}
	if err := query.Find(&games).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list games: %w", err)
	}
	return games, total, nil
}

func filterScope(f *domain.FilterSet) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.AppID != nil {
			db = db.Where("games.app_id = ?", *f.AppID)
		}
		if f.Name != nil {
			db = db.Where("LOWER(games.name) LIKE LOWER(?)", "%"+*f.Name+"%")
		}
		if f.About != nil {
			db = db.Where("LOWER(games.about_the_game) LIKE LOWER(?)", "%"+*f.About+"%")
		}
		if f.ReleaseDate != nil {
			db = db.Where("games.release_date = ?", *f.ReleaseDate)
		}
		if f.RequiredAge != nil {
			db = db.Where("games.required_age = ?", *f.RequiredAge)
		}
		if f.Price != nil {
			db = db.Where("games.price = ?", *f.Price)
		}
		if f.DLCCount != nil {
			db = db.Where("games.dlc_count = ?", *f.DLCCount)
		}
		if f.Positive != nil {
			db = db.Where("games.positive = ?", *f.Positive)
		}
		if f.Negative != nil {
			db = db.Where("games.negative = ?", *f.Negative)
		}
		if f.ScoreRank != nil {
			db = db.Where("games.score_rank = ?", *f.ScoreRank)
		}

		if f.ReleaseDateFrom != nil {
			db = db.Where("games.release_date >= ?", *f.ReleaseDateFrom)
		}
		if f.ReleaseDateTo != nil {
			db = db.Where("games.release_date <= ?", *f.ReleaseDateTo)
		}
		if f.PriceMin != nil {
			db = db.Where("games.price >= ?", *f.PriceMin)
		}
		if f.PriceMax != nil {
			db = db.Where("games.price <= ?", *f.PriceMax)
		}
		if f.PositiveMin != nil {
			db = db.Where("games.positive >= ?", *f.PositiveMin)
		}
		if f.PositiveMax != nil {
			db = db.Where("games.positive <= ?", *f.PositiveMax)
		}
		if f.NegativeMin != nil {
			db = db.Where("games.negative >= ?", *f.NegativeMin)
		}
		if f.NegativeMax != nil {
			db = db.Where("games.negative <= ?", *f.NegativeMax)
		}

		if len(f.Platforms) > 0 {
			conds := make([]string, 0, len(f.Platforms))
			args := make([]interface{}, 0, len(f.Platforms))
			for _, p := range f.Platforms {
				column, ok := platformColumns[strings.ToLower(p)]
				if !ok {
					continue
				}
				conds = append(conds, column+" = ?")
				args = append(args, true)
			}
			if len(conds) > 0 {
				db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
			}
		}

		for _, kind := range domain.ReferenceKinds {
			values := f.Relations()[kind]
			if len(values) == 0 {
				continue
			}
			sql, args := existsRelation(kind, values)
			db = db.Where(sql, args...)
		}
		return db
	}
}

var platformColumns = map[string]string{
	domain.PlatformWindows: "games.windows",
	domain.PlatformMac:     "games.mac",
	domain.PlatformLinux:   "games.linux",
}

// existsRelation matches games linked to at least one entity whose name
// contains any of values, case-insensitively.
func existsRelation(kind domain.ReferenceKind, values []string) (string, []interface{}) {
	likes := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		likes[i] = "LOWER(r.name) LIKE LOWER(?)"
		args[i] = "%" + v + "%"
	}
	sql := fmt.Sprintf(
		"EXISTS (SELECT 1 FROM %s j JOIN %s r ON r.id = j.%s WHERE j.game_id = games.id AND (%s))",
		kind.JoinTable(), kind.Table(), kind.ForeignKey(), strings.Join(likes, " OR "),
	)
	return sql, args
}
