package sqlstore

import (
	"database/sql"

	"github.com/dmateos/courtside/internal/models"
)

func (s *SQLStore) CreateConversation(conv *models.Conversation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := s.rebind("INSERT INTO conversations (id, team_id, name, is_group) VALUES (?, ?, ?, ?)")
	var teamID sql.NullInt64
	if conv.TeamID != nil {
		teamID = sql.NullInt64{Int64: *conv.TeamID, Valid: true}
	}
	if _, err := tx.Exec(query, conv.ID, teamID, conv.Name, conv.IsGroup); err != nil {
		return err
	}

	query = s.rebind("INSERT INTO conversation_participants (conversation_id, user_id) VALUES (?, ?)")
	for _, userID := range conv.Participants {
		if _, err := tx.Exec(query, conv.ID, userID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLStore) FindConversationByID(id string) (*models.Conversation, error) {
	var conv models.Conversation
	var teamID sql.NullInt64
	query := s.rebind("SELECT id, team_id, COALESCE(name, ''), is_group FROM conversations WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&conv.ID, &teamID, &conv.Name, &conv.IsGroup)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if teamID.Valid {
		conv.TeamID = &teamID.Int64
	}

	if conv.Participants, err = s.listParticipants(conv.ID); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *SQLStore) FindDirectConversation(userA, userB int64) (*models.Conversation, error) {
	var id string
	query := s.rebind(`
		SELECT c.id
		FROM conversations c
		JOIN conversation_participants pa ON pa.conversation_id = c.id AND pa.user_id = ?
		JOIN conversation_participants pb ON pb.conversation_id = c.id AND pb.user_id = ?
		WHERE c.is_group = FALSE
		LIMIT 1
	`)
	err := s.db.QueryRow(query, userA, userB).Scan(&id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return s.FindConversationByID(id)
}

func (s *SQLStore) FindTeamConversation(teamID int64) (*models.Conversation, error) {
	var id string
	query := s.rebind("SELECT id FROM conversations WHERE team_id = ? LIMIT 1")
	err := s.db.QueryRow(query, teamID).Scan(&id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return s.FindConversationByID(id)
}

func (s *SQLStore) ListUserConversations(userID int64) ([]models.Conversation, error) {
	query := s.rebind(`
		SELECT c.id
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = ?
		ORDER BY c.id ASC
	`)
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Close before the per-id lookups; the pool may hold a single connection.
	rows.Close()

	var conversations []models.Conversation
	for _, id := range ids {
		conv, err := s.FindConversationByID(id)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *conv)
	}
	return conversations, nil
}

func (s *SQLStore) listParticipants(conversationID string) ([]int64, error) {
	query := s.rebind("SELECT user_id FROM conversation_participants WHERE conversation_id = ? ORDER BY user_id ASC")
	rows, err := s.db.Query(query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		participants = append(participants, userID)
	}
	return participants, rows.Err()
}

func (s *SQLStore) AppendMessage(conversationID string, msg *models.Message) error {
	query := s.rebind(`
		INSERT INTO messages (conversation_id, kind, sender_id, recipient_id, content, filename, filesize, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	var recipient sql.NullInt64
	if msg.To != 0 {
		recipient = sql.NullInt64{Int64: msg.To, Valid: true}
	}
	_, err := s.db.Exec(query, conversationID, msg.Kind, msg.From, recipient, msg.Content, msg.Filename, msg.Filesize, msg.Timestamp)
	return err
}

func (s *SQLStore) ListMessages(conversationID string) ([]models.Message, error) {
	query := s.rebind(`
		SELECT id, conversation_id, kind, sender_id, COALESCE(recipient_id, 0), COALESCE(content, ''),
		       COALESCE(filename, ''), COALESCE(filesize, 0), created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`)
	rows, err := s.db.Query(query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Kind, &m.From, &m.To, &m.Content, &m.Filename, &m.Filesize, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
