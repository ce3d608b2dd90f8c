package repository

import (
	"context"
	"fmt"

	"github.com/timmy/gamedata/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferenceRepository deduplicates developers, publishers, categories,
// genres, tags and languages by exact name and links them to games.
type ReferenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository creates a new ReferenceRepository.
// Parameters:
//   - db: GORM database handle, usually a transaction.
//
// Returns:
//   - *ReferenceRepository: repository instance bound to db.
func NewReferenceRepository(db *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *ReferenceRepository) WithTx(tx *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: tx}
}

// Resolve returns the entity of the given kind named name, inserting it on a miss.
// The insert runs immediately so later lookups in the same transaction see it.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - kind: reference taxonomy.
//   - name: exact, case-sensitive entity name.
//
// Returns:
//   - *domain.Reference: existing or newly created entity.
//   - error: non-nil if the lookup or insert fails.
func (r *ReferenceRepository) Resolve(ctx context.Context, kind domain.ReferenceKind, name string) (*domain.Reference, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown reference kind %q", kind)
	}

	ref, err := r.find(ctx, kind, name)
	if err == nil {
		return ref, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	ref = &domain.Reference{Name: name}
	if err := r.db.WithContext(ctx).Table(kind.Table()).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(ref).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s %q: %w", kind, name, err)
	}
	if ref.ID != 0 {
		return ref, nil
	}

	// Lost an insert race with a concurrent import.
	return r.find(ctx, kind, name)
}

func (r *ReferenceRepository) find(ctx context.Context, kind domain.ReferenceKind, name string) (*domain.Reference, error) {
	var ref domain.Reference
	err := r.db.WithContext(ctx).Table(kind.Table()).
		Where("name = ?", name).
		Take(&ref).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ref, nil
}

// Link associates a game with a reference entity. Linking twice is a no-op.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - kind: reference taxonomy.
//   - gameID: surrogate ID of the game.
//   - refID: surrogate ID of the entity.
//
// Returns:
//   - bool: true if a new link row was inserted, false if it already existed.
//   - error: non-nil if the insert fails.
func (r *ReferenceRepository) Link(ctx context.Context, kind domain.ReferenceKind, gameID, refID uint) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("unknown reference kind %q", kind)
	}
	row := map[string]interface{}{
		"game_id":         gameID,
		kind.ForeignKey(): refID,
	}
	result := r.db.WithContext(ctx).Table(kind.JoinTable()).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if result.Error != nil {
		return false, fmt.Errorf("failed to link game %d to %s %d: %w", gameID, kind, refID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Count returns the number of entities of a kind.
func (r *ReferenceRepository) Count(ctx context.Context, kind domain.ReferenceKind) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("unknown reference kind %q", kind)
	}
	var count int64
	if err := r.db.WithContext(ctx).Table(kind.Table()).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", kind.Table(), err)
	}
	return count, nil
}

// Names returns every entity name of a kind in insertion order.
func (r *ReferenceRepository) Names(ctx context.Context, kind domain.ReferenceKind) ([]string, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown reference kind %q", kind)
	}
	var names []string
	if err := r.db.WithContext(ctx).Table(kind.Table()).
		Order("id").
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
