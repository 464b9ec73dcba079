package sqlstore

import (
	"github.com/dmateos/courtside/internal/models"
	"github.com/dmateos/courtside/internal/store"
)

func (s *SQLStore) CreateNotification(n *models.Notification) error {
	query := s.rebind("INSERT INTO notifications (id, user_id, title, body, link, read, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, n.ID, n.UserID, n.Title, n.Body, n.Link, n.Read, n.CreatedAt)
	return err
}

func (s *SQLStore) ListNotifications(userID int64) ([]models.Notification, error) {
	query := s.rebind(`
		SELECT id, user_id, title, COALESCE(body, ''), link, read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`)
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *SQLStore) MarkNotificationRead(id string, userID int64) error {
	query := s.rebind("UPDATE notifications SET read = TRUE WHERE id = ? AND user_id = ?")
	result, err := s.db.Exec(query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}
