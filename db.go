package main

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS feedback (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		date               TEXT NOT NULL,
		author_email       TEXT NOT NULL,
		author_slack_id    TEXT NOT NULL,
		recipient_email    TEXT NOT NULL,
		recipient_slack_id TEXT NOT NULL,
		feedback           TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_recipient ON feedback(recipient_slack_id);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// FeedbackRecord holds feedback plaintext in memory; the feedback column
// at rest is hex-encoded AES-256-GCM ciphertext.
type FeedbackRecord struct {
	ID               int64
	Date             time.Time
	AuthorEmail      string
	AuthorSlackID    string
	RecipientEmail   string
	RecipientSlackID string
	Feedback         string
}

func InsertFeedback(db *sql.DB, key []byte, rec FeedbackRecord) error {
	ciphertext, err := encryptText(key, rec.Feedback)
	if err != nil {
		return fmt.Errorf("encrypting feedback: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO feedback (date, author_email, author_slack_id, recipient_email, recipient_slack_id, feedback)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Date.Format(time.RFC3339), rec.AuthorEmail, rec.AuthorSlackID,
		rec.RecipientEmail, rec.RecipientSlackID, ciphertext,
	)
	return err
}

func GetFeedbackForRecipient(db *sql.DB, key []byte, recipientSlackID string) ([]FeedbackRecord, error) {
	rows, err := db.Query(
		`SELECT id, date, author_email, author_slack_id, recipient_email, recipient_slack_id, feedback
		 FROM feedback WHERE recipient_slack_id = ? ORDER BY date, id`,
		recipientSlackID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []FeedbackRecord
	for rows.Next() {
		var rec FeedbackRecord
		var date, ciphertext string
		if err := rows.Scan(&rec.ID, &date, &rec.AuthorEmail, &rec.AuthorSlackID,
			&rec.RecipientEmail, &rec.RecipientSlackID, &ciphertext); err != nil {
			return nil, err
		}
		rec.Date, _ = time.Parse(time.RFC3339, date)
		plaintext, err := decryptText(key, ciphertext)
		if err != nil {
			log.Printf("feedback row %d: decrypt failed, skipped: %v", rec.ID, err)
			continue
		}
		rec.Feedback = plaintext
		records = append(records, rec)
	}
	return records, rows.Err()
}

func encryptText(key []byte, plaintext string) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

func decryptText(key []byte, encoded string) (string, error) {
	data, err := hex.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
