package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/cueclub/league-night/internal/domain/match"
	"github.com/cueclub/league-night/internal/usecase"
)

// DemoSeeder provisions a ready-to-play demo match for local development.
// It is wired only when the app runs against the memory store; the seed
// route rejects when no seeder is configured.
type DemoSeeder interface {
	SeedDemoMatch(ctx context.Context) (*match.Match, error)
}

type Handler struct {
	matchService        *usecase.MatchService
	scoringService      *usecase.ScoringService
	substitutionService *usecase.SubstitutionService
	confirmationService *usecase.ConfirmationService
	seeder              DemoSeeder
	logger              *slog.Logger
	validator           *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	scoringService *usecase.ScoringService,
	substitutionService *usecase.SubstitutionService,
	confirmationService *usecase.ConfirmationService,
	seeder DemoSeeder,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		matchService:        matchService,
		scoringService:      scoringService,
		substitutionService: substitutionService,
		confirmationService: confirmationService,
		seeder:              seeder,
		logger:              logger,
		validator:           validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) SeedDemoMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SeedDemoMatch")
	defer span.End()

	if h.seeder == nil {
		writeError(ctx, w, fmt.Errorf("%w: demo seeding is not available in this environment", usecase.ErrDependencyUnavailable))
		return
	}

	m, err := h.seeder.SeedDemoMatch(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "seed demo match failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(ctx, m))
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeBody(r *http.Request, v any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: path segment %s must be an integer, got %q", usecase.ErrInvalidInput, name, raw)
	}
	return v, nil
}

type createMatchRequest struct {
	HomeTeamID        string `json:"homeTeamId" validate:"required"`
	AwayTeamID        string `json:"awayTeamId" validate:"required"`
	HomeCaptainUserID string `json:"homeCaptainUserId" validate:"required"`
	AwayCaptainUserID string `json:"awayCaptainUserId" validate:"required"`
}

type startMatchRequest struct {
	HomeLineup []string `json:"homeLineup" validate:"required,len=4,dive,required"`
	AwayLineup []string `json:"awayLineup" validate:"required,len=4,dive,required"`
}

type scoreFrameRequest struct {
	WinnerPlayerID string `json:"winnerPlayerId" validate:"required"`
}

type substitutionRequest struct {
	RoundIndex        int    `json:"roundIndex" validate:"min=0,max=3"`
	Position          int    `json:"position" validate:"min=1,max=4"`
	CandidatePlayerID string `json:"candidatePlayerId" validate:"required"`
}

type matchDTO struct {
	ID                string     `json:"id"`
	HomeTeamID        string     `json:"homeTeamId"`
	AwayTeamID        string     `json:"awayTeamId"`
	HomeCaptainUserID string     `json:"homeCaptainUserId"`
	AwayCaptainUserID string     `json:"awayCaptainUserId"`
	Status            string     `json:"status"`
	Phase             string     `json:"phase"`
	CurrentRound      int        `json:"currentRound"`
	HomeFrames        int        `json:"homeFrames"`
	AwayFrames        int        `json:"awayFrames"`
	HomeParticipants  []string   `json:"homeParticipants,omitempty"`
	AwayParticipants  []string   `json:"awayParticipants,omitempty"`
	Rounds            []roundDTO `json:"rounds"`
	Version           int64      `json:"version"`
	CreatedAt         string     `json:"createdAt"`
	UpdatedAt         string     `json:"updatedAt"`
}

type roundDTO struct {
	Round         int        `json:"round"`
	State         string     `json:"state"`
	HomeConfirmed bool       `json:"homeConfirmed"`
	AwayConfirmed bool       `json:"awayConfirmed"`
	HomeLineup    []string   `json:"homeLineup"`
	AwayLineup    []string   `json:"awayLineup"`
	Frames        []frameDTO `json:"frames"`
}

type frameDTO struct {
	Round          int               `json:"round"`
	Position       int               `json:"position"`
	AwaySlot       string            `json:"awaySlot"`
	HomeBreaks     bool              `json:"homeBreaks"`
	HomePlayerID   string            `json:"homePlayerId"`
	AwayPlayerID   string            `json:"awayPlayerId"`
	WinnerPlayerID string            `json:"winnerPlayerId,omitempty"`
	IsComplete     bool              `json:"isComplete"`
	HomeScore      int               `json:"homeScore"`
	AwayScore      int               `json:"awayScore"`
	Substitutions  []substitutionDTO `json:"substitutions,omitempty"`
}

type substitutionDTO struct {
	At          string `json:"at"`
	Side        string `json:"side"`
	Position    int    `json:"position"`
	OutPlayerID string `json:"outPlayerId"`
	InPlayerID  string `json:"inPlayerId"`
	ActorUserID string `json:"actorUserId"`
}

type substitutionCheckDTO struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

func matchToDTO(ctx context.Context, m *match.Match) matchDTO {
	ctx, span := startSpan(ctx, "httpapi.matchToDTO")
	defer span.End()

	homeFrames, awayFrames := m.FrameTotals()
	dto := matchDTO{
		ID:                m.ID,
		HomeTeamID:        m.HomeTeamID,
		AwayTeamID:        m.AwayTeamID,
		HomeCaptainUserID: m.HomeCaptainUserID,
		AwayCaptainUserID: m.AwayCaptainUserID,
		Status:            string(m.Status),
		Phase:             string(m.Phase()),
		CurrentRound:      m.CurrentRound,
		HomeFrames:        homeFrames,
		AwayFrames:        awayFrames,
		HomeParticipants:  append([]string(nil), m.Participants.Home...),
		AwayParticipants:  append([]string(nil), m.Participants.Away...),
		Rounds:            make([]roundDTO, 0, match.RoundCount),
		Version:           m.Version,
		CreatedAt:         m.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         m.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if len(m.Frames) == 0 {
		return dto
	}

	for round := 1; round <= match.RoundCount; round++ {
		dto.Rounds = append(dto.Rounds, roundToDTO(m, round))
	}
	return dto
}

func roundToDTO(m *match.Match, round int) roundDTO {
	state, err := m.RoundStateAt(round)
	if err != nil {
		state = match.RoundStateOpen
	}

	idx := round - 1
	lineups := m.Lineups[round]
	dto := roundDTO{
		Round:         round,
		State:         string(state),
		HomeConfirmed: m.HomeConfirmed[idx],
		AwayConfirmed: m.AwayConfirmed[idx],
		HomeLineup:    lineups.Home[:],
		AwayLineup:    lineups.Away[:],
		Frames:        make([]frameDTO, 0, match.PositionsPerSide),
	}
	for i := range m.Frames {
		f := &m.Frames[i]
		if f.Round != round {
			continue
		}
		dto.Frames = append(dto.Frames, frameToDTO(f))
	}
	return dto
}

func frameToDTO(f *match.Frame) frameDTO {
	dto := frameDTO{
		Round:          f.Round,
		Position:       f.Position,
		AwaySlot:       f.AwaySlot,
		HomeBreaks:     f.HomeBreaks,
		HomePlayerID:   f.HomePlayerID,
		AwayPlayerID:   f.AwayPlayerID,
		WinnerPlayerID: f.WinnerPlayerID,
		IsComplete:     f.IsComplete,
		HomeScore:      f.HomeScore,
		AwayScore:      f.AwayScore,
	}
	for _, sub := range f.Substitutions {
		dto.Substitutions = append(dto.Substitutions, substitutionDTO{
			At:          sub.At.UTC().Format(time.RFC3339),
			Side:        string(sub.Side),
			Position:    sub.Position,
			OutPlayerID: sub.OutPlayerID,
			InPlayerID:  sub.InPlayerID,
			ActorUserID: sub.ActorUserID,
		})
	}
	return dto
}

func lineupFromSlice(ids []string) (match.Lineup, error) {
	var lineup match.Lineup
	if len(ids) != match.PositionsPerSide {
		return lineup, fmt.Errorf("%w: a lineup names exactly %d players", usecase.ErrInvalidInput, match.PositionsPerSide)
	}
	for i, id := range ids {
		lineup[i] = strings.TrimSpace(id)
	}
	return lineup, nil
}
