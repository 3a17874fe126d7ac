package chat

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// LogRepository persists conversation turns for later analysis.
type LogRepository struct {
	db *sql.DB
}

func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) LogTurn(ctx context.Context, sessionID, userMessage, botReply, action string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chatbot_logs (id, session_id, user_message, bot_response, action, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, uuid.New().String(), sessionID, userMessage, botReply, action)
	return err
}
