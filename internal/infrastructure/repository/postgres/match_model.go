package postgres

import (
	"fmt"
	"strconv"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lib/pq"

	"github.com/cueclub/league-night/internal/domain/match"
)

type matchTableModel struct {
	ID                string         `db:"id"`
	HomeTeamID        string         `db:"home_team_id"`
	AwayTeamID        string         `db:"away_team_id"`
	HomeCaptainUserID string         `db:"home_captain_user_id"`
	AwayCaptainUserID string         `db:"away_captain_user_id"`
	Status            string         `db:"status"`
	CurrentRound      int            `db:"current_round"`
	RoundLocked       pq.BoolArray   `db:"round_locked"`
	HomeConfirmed     pq.BoolArray   `db:"home_confirmed"`
	AwayConfirmed     pq.BoolArray   `db:"away_confirmed"`
	HomeParticipants  pq.StringArray `db:"home_participants"`
	AwayParticipants  pq.StringArray `db:"away_participants"`
	Lineups           string         `db:"lineups"`
	Frames            string         `db:"frames"`
	Version           int64          `db:"version"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
	DeletedAt         *time.Time     `db:"deleted_at"`
}

type matchInsertModel struct {
	ID                string         `db:"id"`
	HomeTeamID        string         `db:"home_team_id"`
	AwayTeamID        string         `db:"away_team_id"`
	HomeCaptainUserID string         `db:"home_captain_user_id"`
	AwayCaptainUserID string         `db:"away_captain_user_id"`
	Status            string         `db:"status"`
	CurrentRound      int            `db:"current_round"`
	RoundLocked       pq.BoolArray   `db:"round_locked"`
	HomeConfirmed     pq.BoolArray   `db:"home_confirmed"`
	AwayConfirmed     pq.BoolArray   `db:"away_confirmed"`
	HomeParticipants  pq.StringArray `db:"home_participants"`
	AwayParticipants  pq.StringArray `db:"away_participants"`
	Lineups           string         `db:"lineups"`
	Frames            string         `db:"frames"`
	Version           int64          `db:"version"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

// roundLineupsDoc and frameDoc are the JSONB document shapes. Arrays and
// scalars live in typed columns; the nested per-round structures go through
// these documents.
type roundLineupsDoc struct {
	Home []string `json:"home"`
	Away []string `json:"away"`
}

type substitutionDoc struct {
	At          time.Time `json:"at"`
	Side        string    `json:"side"`
	Position    int       `json:"position"`
	OutPlayerID string    `json:"outPlayerId"`
	InPlayerID  string    `json:"inPlayerId"`
	ActorUserID string    `json:"actorUserId"`
}

type frameDoc struct {
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
	Substitutions  []substitutionDoc `json:"substitutions,omitempty"`
}

func encodeLineupsDoc(lineups map[int]match.RoundLineups) (string, error) {
	doc := make(map[string]roundLineupsDoc, len(lineups))
	for round, rl := range lineups {
		doc[strconv.Itoa(round)] = roundLineupsDoc{
			Home: rl.Home[:],
			Away: rl.Away[:],
		}
	}
	payload, err := sonic.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode match lineups: %w", err)
	}
	return string(payload), nil
}

func decodeLineupsDoc(raw string) (map[int]match.RoundLineups, error) {
	if raw == "" {
		return nil, nil
	}
	var doc map[string]roundLineupsDoc
	if err := sonic.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode match lineups: %w", err)
	}
	if len(doc) == 0 {
		return nil, nil
	}

	out := make(map[int]match.RoundLineups, len(doc))
	for key, rl := range doc {
		round, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("decode match lineups: round key %q: %w", key, err)
		}
		out[round] = match.RoundLineups{
			Home: lineupFromDoc(rl.Home),
			Away: lineupFromDoc(rl.Away),
		}
	}
	return out, nil
}

func lineupFromDoc(ids []string) match.Lineup {
	var lineup match.Lineup
	for i := 0; i < len(lineup) && i < len(ids); i++ {
		lineup[i] = ids[i]
	}
	return lineup
}

func encodeFramesDoc(frames []match.Frame) (string, error) {
	docs := make([]frameDoc, 0, len(frames))
	for _, f := range frames {
		doc := frameDoc{
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
			doc.Substitutions = append(doc.Substitutions, substitutionDoc{
				At:          sub.At,
				Side:        string(sub.Side),
				Position:    sub.Position,
				OutPlayerID: sub.OutPlayerID,
				InPlayerID:  sub.InPlayerID,
				ActorUserID: sub.ActorUserID,
			})
		}
		docs = append(docs, doc)
	}
	payload, err := sonic.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("encode match frames: %w", err)
	}
	return string(payload), nil
}

func decodeFramesDoc(raw string) ([]match.Frame, error) {
	if raw == "" {
		return nil, nil
	}
	var docs []frameDoc
	if err := sonic.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, fmt.Errorf("decode match frames: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	frames := make([]match.Frame, 0, len(docs))
	for _, doc := range docs {
		f := match.Frame{
			Round:          doc.Round,
			Position:       doc.Position,
			AwaySlot:       doc.AwaySlot,
			HomeBreaks:     doc.HomeBreaks,
			HomePlayerID:   doc.HomePlayerID,
			AwayPlayerID:   doc.AwayPlayerID,
			WinnerPlayerID: doc.WinnerPlayerID,
			IsComplete:     doc.IsComplete,
			HomeScore:      doc.HomeScore,
			AwayScore:      doc.AwayScore,
		}
		for _, sub := range doc.Substitutions {
			f.Substitutions = append(f.Substitutions, match.SubstitutionRecord{
				At:          sub.At,
				Side:        match.Side(sub.Side),
				Position:    sub.Position,
				OutPlayerID: sub.OutPlayerID,
				InPlayerID:  sub.InPlayerID,
				ActorUserID: sub.ActorUserID,
			})
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func boolArrayFromFlags(flags [match.RoundCount]bool) pq.BoolArray {
	out := make(pq.BoolArray, match.RoundCount)
	copy(out, flags[:])
	return out
}

func flagsFromBoolArray(arr pq.BoolArray) [match.RoundCount]bool {
	var flags [match.RoundCount]bool
	for i := 0; i < len(flags) && i < len(arr); i++ {
		flags[i] = arr[i]
	}
	return flags
}

func matchFromRow(row matchTableModel) (*match.Match, error) {
	lineups, err := decodeLineupsDoc(row.Lineups)
	if err != nil {
		return nil, err
	}
	frames, err := decodeFramesDoc(row.Frames)
	if err != nil {
		return nil, err
	}

	return &match.Match{
		ID:                row.ID,
		HomeTeamID:        row.HomeTeamID,
		AwayTeamID:        row.AwayTeamID,
		HomeCaptainUserID: row.HomeCaptainUserID,
		AwayCaptainUserID: row.AwayCaptainUserID,
		Status:            match.Status(row.Status),
		CurrentRound:      row.CurrentRound,
		RoundLocked:       flagsFromBoolArray(row.RoundLocked),
		HomeConfirmed:     flagsFromBoolArray(row.HomeConfirmed),
		AwayConfirmed:     flagsFromBoolArray(row.AwayConfirmed),
		Lineups:           lineups,
		Participants: match.Participants{
			Home: append([]string(nil), row.HomeParticipants...),
			Away: append([]string(nil), row.AwayParticipants...),
		},
		Frames:    frames,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
