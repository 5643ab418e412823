package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore persists users, journal entries and recommendations. It talks to
// SQLite by default and to PostgreSQL when given a postgres:// URL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func NewSQLStore(dataSourceName string) (*SQLStore, error) {
	driver, d := "sqlite3", dialectSQLite
	if strings.HasPrefix(dataSourceName, "postgres://") || strings.HasPrefix(dataSourceName, "postgresql://") {
		driver, d = "postgres", dialectPostgres
	}

	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLStore{db: db, dialect: d}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) initSchema() error {
	timestamp := "DATETIME"
	if s.dialect == dialectPostgres {
		timestamp = "TIMESTAMPTZ"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY, -- UUID
        email TEXT UNIQUE NOT NULL,
        name TEXT NOT NULL DEFAULT '',
        password_hash TEXT NOT NULL,
        is_new_user BOOLEAN NOT NULL DEFAULT TRUE,
        personality TEXT NOT NULL DEFAULT '',
        core_values TEXT NOT NULL DEFAULT '',
        strengths TEXT NOT NULL DEFAULT '',
        goals TEXT NOT NULL DEFAULT '',
        created_at ` + timestamp + ` NOT NULL
    )`,
		`CREATE TABLE IF NOT EXISTS journal_entries (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL REFERENCES users (id),
        title TEXT NOT NULL,
        content TEXT NOT NULL,
        tags TEXT NOT NULL DEFAULT '[]', -- JSON array of strings
        mood TEXT NOT NULL DEFAULT '',
        emotions TEXT NOT NULL DEFAULT '[]', -- JSON array of strings
        strength TEXT NOT NULL DEFAULT '',
        weakness TEXT NOT NULL DEFAULT '',
        insight TEXT NOT NULL DEFAULT '',
        analysis TEXT, -- raw analysis payload
        created_at ` + timestamp + ` NOT NULL,
        updated_at ` + timestamp + ` NOT NULL
    )`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_user ON journal_entries (user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS recommendations (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL REFERENCES users (id),
        type TEXT NOT NULL CHECK (type IN ('youtube', 'podcast', 'article', 'book')),
        title TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        url TEXT NOT NULL DEFAULT '',
        author TEXT NOT NULL DEFAULT '',
        is_helpful BOOLEAN, -- NULL until the user votes
        created_at ` + timestamp + ` NOT NULL
    )`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_user ON recommendations (user_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.rebind(query), args...)
}

func (s *SQLStore) queryRow(query string, args ...any) *sql.Row {
	return s.db.QueryRow(s.rebind(query), args...)
}

func (s *SQLStore) query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(s.rebind(query), args...)
}

// User methods
const userColumns = "id, email, name, password_hash, is_new_user, personality, core_values, strengths, goals, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsNewUser,
		&user.Profile.Personality, &user.Profile.Values, &user.Profile.Strengths, &user.Profile.Goals, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

func (s *SQLStore) CreateUser(user *User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()

	_, err := s.exec("INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Email, user.Name, user.PasswordHash, user.IsNewUser,
		user.Profile.Personality, user.Profile.Values, user.Profile.Strengths, user.Profile.Goals, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *SQLStore) GetUserByEmail(email string) (*User, error) {
	return scanUser(s.queryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email))
}

func (s *SQLStore) GetUserByID(id string) (*User, error) {
	return scanUser(s.queryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// UpdateUserProfile stores the profile and clears the new-user flag.
func (s *SQLStore) UpdateUserProfile(id string, profile Profile) (*User, error) {
	res, err := s.exec("UPDATE users SET personality = ?, core_values = ?, strengths = ?, goals = ?, is_new_user = ? WHERE id = ?",
		profile.Personality, profile.Values, profile.Strengths, profile.Goals, false, id)
	if err != nil {
		return nil, fmt.Errorf("failed to execute profile update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetUserByID(id)
}

// Entry methods
const entryColumns = "id, user_id, title, content, tags, mood, emotions, strength, weakness, insight, analysis, created_at, updated_at"

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry        Entry
		tagsJSON     string
		emotionsJSON string
		analysis     sql.NullString
	)
	err := row.Scan(&entry.ID, &entry.UserID, &entry.Title, &entry.Content, &tagsJSON,
		&entry.Mood, &emotionsJSON, &entry.Strength, &entry.Weakness, &entry.Insight, &analysis,
		&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}
	entry.Tags = decodeStrings(tagsJSON)
	if emotions := decodeStrings(emotionsJSON); len(emotions) > 0 {
		entry.Emotions = emotions
	}
	if analysis.Valid && analysis.String != "" {
		entry.Analysis = json.RawMessage(analysis.String)
	}
	return &entry, nil
}

func encodeStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func decodeStrings(raw string) []string {
	values := []string{}
	if raw == "" {
		return values
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return []string{}
	}
	return values
}

// CreateEntry inserts a new entry, assigning its ID and timestamps.
func (s *SQLStore) CreateEntry(entry *Entry) error {
	entry.ID = uuid.NewString()
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.Tags == nil {
		entry.Tags = []string{}
	}

	_, err := s.exec("INSERT INTO journal_entries (id, user_id, title, content, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.UserID, entry.Title, entry.Content, encodeStrings(entry.Tags), entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute entry insert: %w", err)
	}
	return nil
}

func (s *SQLStore) GetEntry(id, userID string) (*Entry, error) {
	return scanEntry(s.queryRow("SELECT "+entryColumns+" FROM journal_entries WHERE id = ? AND user_id = ?", id, userID))
}

// ListEntries returns the user's entries, newest first.
func (s *SQLStore) ListEntries(userID string) ([]Entry, error) {
	rows, err := s.query("SELECT "+entryColumns+" FROM journal_entries WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

// UpdateEntry overwrites title, content and tags. Last write wins.
func (s *SQLStore) UpdateEntry(entry *Entry) error {
	entry.UpdatedAt = time.Now().UTC()
	if entry.Tags == nil {
		entry.Tags = []string{}
	}

	res, err := s.exec("UPDATE journal_entries SET title = ?, content = ?, tags = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		entry.Title, entry.Content, encodeStrings(entry.Tags), entry.UpdatedAt, entry.ID, entry.UserID)
	if err != nil {
		return fmt.Errorf("failed to execute entry update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) SaveAnalysis(id, userID string, a EntryAnalysis) error {
	var raw any
	if len(a.Raw) > 0 {
		raw = string(a.Raw)
	}

	res, err := s.exec("UPDATE journal_entries SET mood = ?, emotions = ?, strength = ?, weakness = ?, insight = ?, analysis = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		a.Mood, encodeStrings(a.Emotions), a.Strength, a.Weakness, a.Insight, raw, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to execute analysis update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteEntry(id, userID string) error {
	res, err := s.exec("DELETE FROM journal_entries WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to execute entry delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Recommendation methods
const recommendationColumns = "id, user_id, type, title, description, url, author, is_helpful, created_at"

// CreateRecommendations inserts a generated batch in one transaction. IDs and
// timestamps already set by the caller are kept.
func (s *SQLStore) CreateRecommendations(userID string, recs []Recommendation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin recommendation insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.rebind("INSERT INTO recommendations (" + recommendationColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare recommendation insert: %w", err)
	}
	defer stmt.Close()

	batchTime := time.Now().UTC()
	for i := range recs {
		rec := &recs[i]
		rec.UserID = userID
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			// Spread the batch so ordering by created_at keeps insertion order.
			rec.CreatedAt = batchTime.Add(time.Duration(i) * time.Microsecond)
		}
		var helpful sql.NullBool
		if rec.IsHelpful != nil {
			helpful = sql.NullBool{Bool: *rec.IsHelpful, Valid: true}
		}
		if _, err := stmt.Exec(rec.ID, rec.UserID, string(rec.Type), rec.Title, rec.Description, rec.URL, rec.Author, helpful, rec.CreatedAt); err != nil {
			return fmt.Errorf("failed to execute recommendation insert: %w", err)
		}
	}
	return tx.Commit()
}

// ListRecommendations returns recommendations in generation order.
func (s *SQLStore) ListRecommendations(userID string) ([]Recommendation, error) {
	rows, err := s.query("SELECT "+recommendationColumns+" FROM recommendations WHERE user_id = ? ORDER BY created_at ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	recs := []Recommendation{}
	for rows.Next() {
		var (
			rec     Recommendation
			recType string
			helpful sql.NullBool
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &recType, &rec.Title, &rec.Description, &rec.URL, &rec.Author, &helpful, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation row: %w", err)
		}
		rec.Type = RecommendationType(recType)
		if helpful.Valid {
			v := helpful.Bool
			rec.IsHelpful = &v
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendations: %w", err)
	}
	return recs, nil
}

func (s *SQLStore) SetRecommendationFeedback(id, userID string, helpful bool) error {
	res, err := s.exec("UPDATE recommendations SET is_helpful = ? WHERE id = ? AND user_id = ?", helpful, id, userID)
	if err != nil {
		return fmt.Errorf("failed to execute feedback update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
