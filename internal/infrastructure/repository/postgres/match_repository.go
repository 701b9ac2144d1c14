package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cueclub/league-night/internal/domain/match"
	qb "github.com/cueclub/league-night/internal/platform/querybuilder"
)

// matchChangeChannel is the pg_notify channel carrying match ids. Every
// committed write announces itself there; the change feed turns the
// announcements into Watch snapshots.
const matchChangeChannel = "league_night_match_changed"

type MatchRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
	feed   *matchChangeFeed
	now    func() time.Time
}

func NewMatchRepository(db *sqlx.DB, logger *slog.Logger) *MatchRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (r *MatchRepository) Create(ctx context.Context, m *match.Match) error {
	lineupsDoc, err := encodeLineupsDoc(m.Lineups)
	if err != nil {
		return err
	}
	framesDoc, err := encodeFramesDoc(m.Frames)
	if err != nil {
		return err
	}

	insertModel := matchInsertModel{
		ID:                m.ID,
		HomeTeamID:        m.HomeTeamID,
		AwayTeamID:        m.AwayTeamID,
		HomeCaptainUserID: m.HomeCaptainUserID,
		AwayCaptainUserID: m.AwayCaptainUserID,
		Status:            string(m.Status),
		CurrentRound:      m.CurrentRound,
		RoundLocked:       boolArrayFromFlags(m.RoundLocked),
		HomeConfirmed:     boolArrayFromFlags(m.HomeConfirmed),
		AwayConfirmed:     boolArrayFromFlags(m.AwayConfirmed),
		HomeParticipants:  pq.StringArray(m.Participants.Home),
		AwayParticipants:  pq.StringArray(m.Participants.Away),
		Lineups:           lineupsDoc,
		Frames:            framesDoc,
		Version:           1,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
	query, args, err := qb.InsertModel("matches", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx insert match: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("match %s already exists", m.ID)
		}
		return fmt.Errorf("insert match: %w", err)
	}
	if err := notifyMatchChanged(ctx, tx, m.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert match tx: %w", err)
	}

	m.Version = 1
	return nil
}

func (r *MatchRepository) Get(ctx context.Context, matchID string) (*match.Match, bool, error) {
	query, args, err := matchBaseSelectBuilder().
		Where(
			qb.Eq("id", matchID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err) {
			return r.getSingleParam(ctx, matchID)
		}
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get match: %w", err)
	}

	m, err := matchFromRow(row)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (r *MatchRepository) getSingleParam(ctx context.Context, matchID string) (*match.Match, bool, error) {
	query, _, err := matchBaseSelectBuilder().
		Where(
			qb.Expr("id = ($1::text[])[1]"),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build get match single param fallback query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, pq.Array([]string{matchID})); err != nil {
		if isUnnamedPreparedStatementMissing(err) {
			return r.getLiteral(ctx, matchID)
		}
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get match fallback: %w", err)
	}

	m, err := matchFromRow(row)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (r *MatchRepository) getLiteral(ctx context.Context, matchID string) (*match.Match, bool, error) {
	query, args, err := matchBaseSelectBuilder().
		Where(
			qb.EqLiteral("id", matchID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build get match literal fallback query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get match literal fallback: %w", err)
	}

	m, err := matchFromRow(row)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// Update commits the record only when the stored version matches the one the
// caller read. The version bump, the row write and the change notification
// commit atomically; losing the race surfaces as a state conflict after a
// confirming re-read.
func (r *MatchRepository) Update(ctx context.Context, m *match.Match) error {
	lineupsDoc, err := encodeLineupsDoc(m.Lineups)
	if err != nil {
		return err
	}
	framesDoc, err := encodeFramesDoc(m.Frames)
	if err != nil {
		return err
	}

	expected := m.Version
	now := r.now().UTC()
	query, args, err := qb.Update("matches").
		Set("status", string(m.Status)).
		Set("current_round", m.CurrentRound).
		Set("round_locked", boolArrayFromFlags(m.RoundLocked)).
		Set("home_confirmed", boolArrayFromFlags(m.HomeConfirmed)).
		Set("away_confirmed", boolArrayFromFlags(m.AwayConfirmed)).
		Set("home_participants", pq.StringArray(m.Participants.Home)).
		Set("away_participants", pq.StringArray(m.Participants.Away)).
		Set("lineups", lineupsDoc).
		Set("frames", framesDoc).
		Set("version", expected+1).
		Set("updated_at", now).
		Where(
			qb.Eq("id", m.ID),
			qb.Eq("version", expected),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match query: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx update match: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update match rows affected: %w", err)
	}
	if affected == 0 {
		return r.conflictOrMissing(ctx, m)
	}

	if err := notifyMatchChanged(ctx, tx, m.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update match tx: %w", err)
	}

	m.Version = expected + 1
	m.UpdatedAt = now
	return nil
}

// conflictOrMissing distinguishes the two reasons a conditional write can
// touch zero rows.
func (r *MatchRepository) conflictOrMissing(ctx context.Context, m *match.Match) error {
	_, found, err := r.Get(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: match %s", match.ErrNotFound, m.ID)
	}
	return fmt.Errorf("%w: match %s version %d superseded", match.ErrStateConflict, m.ID, m.Version)
}

// StartChangeFeed opens the LISTEN connection backing Watch. It must be
// called once at boot, before any Watch subscription; the feed lives until
// ctx is cancelled.
func (r *MatchRepository) StartChangeFeed(ctx context.Context, dsn string) error {
	if r.feed != nil {
		return fmt.Errorf("change feed already started")
	}
	feed, err := newMatchChangeFeed(r, dsn, r.logger)
	if err != nil {
		return err
	}
	r.feed = feed
	go feed.run(ctx)
	return nil
}

func (r *MatchRepository) Watch(ctx context.Context, matchID string) (<-chan *match.Match, error) {
	if r.feed == nil {
		return nil, fmt.Errorf("change feed is not started")
	}
	return r.feed.subscribe(ctx, matchID), nil
}

func notifyMatchChanged(ctx context.Context, tx *sqlx.Tx, matchID string) error {
	if _, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", matchChangeChannel, matchID); err != nil {
		return fmt.Errorf("notify match changed: %w", err)
	}
	return nil
}

func matchBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("*").From("matches")
}
