package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/timmy/gamedata/internal/domain"
	"github.com/timmy/gamedata/internal/logger"
	"github.com/timmy/gamedata/internal/metrics"
	"github.com/timmy/gamedata/internal/repository"
	"github.com/timmy/gamedata/internal/source"
	"gorm.io/gorm"
)

// IngestService imports catalog CSV files into the database.
type IngestService struct {
	db      *gorm.DB
	games   *repository.GameRepository
	refs    *repository.ReferenceRepository
	fetcher source.Fetcher
}

// NewIngestService creates a new ingest service.
// Parameters:
//   - db: database handle; each import runs in its own transaction on it.
//   - fetcher: retrieves the CSV body for a URL.
//
// Returns:
//   - *IngestService: initialized service.
func NewIngestService(db *gorm.DB, fetcher source.Fetcher) *IngestService {
	return &IngestService{
		db:      db,
		games:   repository.NewGameRepository(db),
		refs:    repository.NewReferenceRepository(db),
		fetcher: fetcher,
	}
}

// ImportFromURL fetches a CSV resource and imports every valid row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - rawURL: location of the CSV file.
//
// Returns:
//   - *domain.ImportOutcome: per-row result; database failures are reported
//     inside the outcome, not as an error.
//   - error: *source.FetchError or ErrMalformedCSV when nothing could be read.
func (s *IngestService) ImportFromURL(ctx context.Context, rawURL string) (*domain.ImportOutcome, error) {
	ctx = logger.WithField(ctx, logger.FieldSourceURL, rawURL)
	start := time.Now()

	logger.CtxInfo(ctx, "Fetching CSV source")
	data, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to fetch CSV source")
		return nil, err
	}

	rows, err := ParseCSV(data)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to parse CSV source")
		return nil, err
	}

	outcome := s.ImportRows(ctx, rows)

	metrics.HistogramImportDuration.Observe(time.Since(start).Seconds())
	logger.With(logger.Fields{
		"success_count": outcome.SuccessCount,
		"failure_count": outcome.FailureCount,
		"status":        outcome.Status(),
	}).WithDuration(time.Since(start).Milliseconds()).Info(ctx, "Import finished")

	return outcome, nil
}

// ImportRows validates rows and persists the valid ones in a single transaction.
// If the transaction fails nothing is kept: every row counts as a failure and
// the cause is recorded under the "database" key.
func (s *IngestService) ImportRows(ctx context.Context, rows []Row) *domain.ImportOutcome {
	outcome := domain.NewImportOutcome()

	records := make([]*GameRecord, 0, len(rows))
	for _, row := range rows {
		record, rowErr := ValidateRow(row)
		if rowErr != nil {
			outcome.Errors[strconv.Itoa(rowErr.Index)] = rowErr.Reason
			continue
		}
		records = append(records, record)
	}
	validationFailures := len(rows) - len(records)

	logger.With(logger.Fields{
		logger.FieldCount: len(rows),
		"valid_rows":      len(records),
	}).Debug(ctx, "Validated CSV rows")

	if len(records) == 0 {
		outcome.FailureCount = validationFailures
		s.observe(outcome)
		return outcome
	}

	linked := make(map[domain.ReferenceKind]int)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		games := s.games.WithTx(tx)
		refs := s.refs.WithTx(tx)
		for _, record := range records {
			n, err := s.persist(ctx, games, refs, record)
			if err != nil {
				return fmt.Errorf("row %d: %w", record.Index, err)
			}
			for kind, c := range n {
				linked[kind] += c
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.CtxWarn(ctx, "Import transaction aborted: %v", err)
		} else {
			logger.CtxError(ctx, "Import transaction rolled back: %v", err)
		}
		outcome.SuccessCount = 0
		outcome.FailureCount = validationFailures + len(records)
		outcome.Errors[domain.ErrorKeyDatabase] = err.Error()
		s.observe(outcome)
		return outcome
	}

	outcome.SuccessCount = len(records)
	outcome.FailureCount = validationFailures
	for kind, c := range linked {
		metrics.CounterReferencesLinked.WithLabelValues(string(kind)).Add(float64(c))
	}
	s.observe(outcome)
	return outcome
}

// persist stores one record and links its references. An existing game
// keeps its stored fields; only new links are added.
func (s *IngestService) persist(ctx context.Context, games *repository.GameRepository, refs *repository.ReferenceRepository, record *GameRecord) (map[domain.ReferenceKind]int, error) {
	game, err := games.FindByAppID(ctx, record.Game.AppID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		game = &domain.Game{}
		*game = record.Game
		if err := games.Create(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to create game %d: %w", record.Game.AppID, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up game %d: %w", record.Game.AppID, err)
	}

	linked := make(map[domain.ReferenceKind]int)
	references := record.References()
	for _, kind := range domain.ReferenceKinds {
		for _, name := range references[kind] {
			ref, err := refs.Resolve(ctx, kind, name)
			if err != nil {
				return nil, err
			}
			inserted, err := refs.Link(ctx, kind, game.ID, ref.ID)
			if err != nil {
				return nil, err
			}
			if inserted {
				linked[kind]++
			}
		}
	}
	return linked, nil
}

func (s *IngestService) observe(outcome *domain.ImportOutcome) {
	metrics.CounterImportRows.WithLabelValues("success").Add(float64(outcome.SuccessCount))
	metrics.CounterImportRows.WithLabelValues("failure").Add(float64(outcome.FailureCount))
	metrics.CounterImports.WithLabelValues(string(outcome.Status())).Inc()
}
