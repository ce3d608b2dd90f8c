package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/gamedata/internal/domain"
	"github.com/timmy/gamedata/internal/repository"
	"github.com/timmy/gamedata/internal/testutil"
	"gorm.io/gorm"
)

func TestReferenceRepository_ResolveIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewReferenceRepository(db)
	ctx := context.Background()

	first, err := repo.Resolve(ctx, domain.KindDeveloper, "Valve")
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := repo.Resolve(ctx, domain.KindDeveloper, "Valve")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	names, err := repo.Names(ctx, domain.KindDeveloper)
	require.NoError(t, err)
	assert.Equal(t, []string{"Valve"}, names)
}

func TestReferenceRepository_ResolveIsCaseSensitive(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewReferenceRepository(db)
	ctx := context.Background()

	upper, err := repo.Resolve(ctx, domain.KindTag, "Indie")
	require.NoError(t, err)
	lower, err := repo.Resolve(ctx, domain.KindTag, "indie")
	require.NoError(t, err)

	assert.NotEqual(t, upper.ID, lower.ID)
}

func TestReferenceRepository_KindsAreIndependent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewReferenceRepository(db)
	ctx := context.Background()

	for _, kind := range domain.ReferenceKinds {
		_, err := repo.Resolve(ctx, kind, "Shared")
		require.NoError(t, err, kind)
	}
	for _, kind := range domain.ReferenceKinds {
		names, err := repo.Names(ctx, kind)
		require.NoError(t, err)
		assert.Equal(t, []string{"Shared"}, names, kind)
	}
}

func TestReferenceRepository_ResolveVisibleInsideTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewReferenceRepository(tx)
		a, err := repo.Resolve(ctx, domain.KindGenre, "Action")
		if err != nil {
			return err
		}
		b, err := repo.Resolve(ctx, domain.KindGenre, "Action")
		if err != nil {
			return err
		}
		assert.Equal(t, a.ID, b.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestReferenceRepository_LinkTwiceIsNoop(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	games := repository.NewGameRepository(db)
	refs := repository.NewReferenceRepository(db)

	game := newGame(1, "Portal")
	require.NoError(t, games.Create(ctx, game))
	pub, err := refs.Resolve(ctx, domain.KindPublisher, "Valve")
	require.NoError(t, err)

	inserted, err := refs.Link(ctx, domain.KindPublisher, game.ID, pub.ID)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = refs.Link(ctx, domain.KindPublisher, game.ID, pub.ID)
	require.NoError(t, err)
	assert.False(t, inserted)

	var count int64
	require.NoError(t, db.Table("game_publishers").Where("game_id = ?", game.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestReferenceRepository_UnknownKind(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewReferenceRepository(db)

	_, err := repo.Resolve(context.Background(), domain.ReferenceKind("studio"), "x")
	assert.Error(t, err)
	_, err = repo.Link(context.Background(), domain.ReferenceKind("studio"), 1, 1)
	assert.Error(t, err)
	_, err = repo.Count(context.Background(), domain.ReferenceKind("studio"))
	assert.Error(t, err)
}

func TestReferenceRepository_Count(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewReferenceRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Action", "RPG", "Action"} {
		_, err := repo.Resolve(ctx, domain.KindGenre, name)
		require.NoError(t, err)
	}

	genres, err := repo.Count(ctx, domain.KindGenre)
	require.NoError(t, err)
	assert.EqualValues(t, 2, genres)

	tags, err := repo.Count(ctx, domain.KindTag)
	require.NoError(t, err)
	assert.Zero(t, tags)
}
