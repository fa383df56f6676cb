package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"ttt-arena/internal/room"
)

// Result is one finished match as retained after the room is deleted.
// Gameplay never reads the archive; it is a write-only sink.
type Result struct {
	GameID      string
	RoomCode    string
	Player1ID   string
	Player1Name string
	Player2ID   string
	Player2Name string
	Winner      string // "X", "O" or "draw"
	WinnerID    string
	Method      string // "win", "draw", "abandoned"
	MoveCount   int
	Board       string // 9 chars, '.' for empty
	StartedAt   time.Time
	EndedAt     time.Time
}

// NewResult flattens a finished room into an archive row.
func NewResult(r *room.Room, res *room.MoveResult, method string) *Result {
	rec := &Result{
		GameID:    fmt.Sprintf("%s-%d", r.Code, res.Game.StartTime.UnixNano()),
		RoomCode:  r.Code,
		Player1ID: r.Player1ID,
		Player2ID: r.Player2ID,
		Winner:    res.Winner,
		WinnerID:  res.WinnerID,
		Method:    method,
		MoveCount: res.Game.MoveCount,
		Board:     flattenBoard(res.Game),
		StartedAt: res.Game.StartTime,
		EndedAt:   res.Game.LastMoveTime,
	}
	if seat := r.Players[r.Player1ID]; seat != nil {
		rec.Player1Name = seat.DisplayName
	}
	if seat := r.Players[r.Player2ID]; seat != nil {
		rec.Player2Name = seat.DisplayName
	}
	return rec
}

func flattenBoard(g room.GameState) string {
	var b strings.Builder
	for _, c := range g.Board {
		if c == "" {
			b.WriteByte('.')
		} else {
			b.WriteString(string(c))
		}
	}
	return b.String()
}

// Repository persists results to Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts one finished game.
func (r *Repository) SaveResult(ctx context.Context, rec *Result) error {
	if r == nil || r.db == nil || rec == nil {
		return nil
	}
	duration := rec.EndedAt.Sub(rec.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO arena_games (
	    game_id, room_code,
	    player1_id, player1_name, player2_id, player2_name,
	    winner, winner_id, result_method, move_count, board,
	    started_at, ended_at, duration_ms
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
	  ) ON CONFLICT (game_id) DO UPDATE SET
	    winner=EXCLUDED.winner,
	    winner_id=EXCLUDED.winner_id,
	    result_method=EXCLUDED.result_method,
	    move_count=EXCLUDED.move_count,
	    board=EXCLUDED.board,
	    ended_at=EXCLUDED.ended_at,
	    duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		rec.GameID, rec.RoomCode,
		rec.Player1ID, rec.Player1Name, rec.Player2ID, rec.Player2Name,
		rec.Winner, rec.WinnerID, strings.TrimSpace(rec.Method), rec.MoveCount, rec.Board,
		rec.StartedAt, rec.EndedAt, duration,
	)
	return err
}
