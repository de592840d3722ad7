package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages content item persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the content item database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Create inserts a new item in the draft state and returns the stored record.
func (s *Store) Create(ctx context.Context, title, body, sectionsJSON string) (*Item, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO content_items (
            title, body, sections_json, state, created_at, updated_at, version
        ) VALUES (?, ?, ?, ?, ?, ?, 1)`,
		title,
		body,
		nullableString(sectionsJSON),
		StateDraft,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a content item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM content_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// CompareAndSwap applies mutate to a copy of the stored record and commits it
// only when the stored version still equals expectedVersion. On success the
// committed record (with its incremented version) is returned. A losing race
// surfaces as ErrVersionConflict; callers re-read and re-evaluate their guard.
func (s *Store) CompareAndSwap(ctx context.Context, id, expectedVersion int64, mutate func(*Item) error) (*Item, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != expectedVersion {
		return nil, fmt.Errorf("%w: have %d, expected %d", ErrVersionConflict, current.Version, expectedVersion)
	}

	updated := current.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}

	// Identity and bookkeeping fields are owned by the store, not the mutator.
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated.Version = expectedVersion + 1
	updated.UpdatedAt = time.Now().UTC()

	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("invalid item after mutation: %w", err)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE content_items
         SET title = ?, body = ?, sections_json = ?, state = ?, video_ref = ?,
             remote_id = ?, scheduled_at = ?, idempotency_token = ?,
             error_detail = ?, error_state = ?, updated_at = ?, version = ?
         WHERE id = ? AND version = ?`,
		updated.Title,
		updated.Body,
		nullableString(updated.SectionsJSON),
		updated.State,
		nullableString(updated.VideoRef),
		nullableString(updated.RemoteID),
		nullableTime(updated.ScheduledAt),
		nullableString(updated.IdempotencyToken),
		nullableString(updated.ErrorDetail),
		nullableString(string(updated.ErrorState)),
		updated.UpdatedAt.Format(time.RFC3339Nano),
		updated.Version,
		id,
		expectedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("commit item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Either the row vanished or another writer won the version race.
		if _, getErr := s.GetByID(ctx, id); errors.Is(getErr, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: concurrent update on item %d", ErrVersionConflict, id)
	}
	return updated, nil
}

// List returns items filtered by state set (or all items when no state is provided).
func (s *Store) List(ctx context.Context, states ...State) ([]*Item, error) {
	baseQuery := `SELECT ` + itemColumns + ` FROM content_items`
	orderClause := ` ORDER BY created_at, id`

	var (
		rows *sql.Rows
		err  error
	)
	if len(states) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(states))
		args := make([]any, len(states))
		for i, state := range states {
			args[i] = state
		}
		query := baseQuery + ` WHERE state IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Stats returns a count of items grouped by state.
func (s *Store) Stats(ctx context.Context) (map[State]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(1) FROM content_items GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("item stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[State]int)
	for rows.Next() {
		var state State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[state] = count
	}
	return stats, rows.Err()
}

// Health aggregates item state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for state, count := range stats {
		health.Total += count
		switch state {
		case StateDraft, StateScriptReady:
			health.Drafting += count
		case StateVideoReady:
			health.Ready += count
		case StateUploading:
			health.Uploading += count
		case StateUploaded, StateScheduled:
			health.Published += count
		case StateError:
			health.Errored += count
		}
	}
	return health, nil
}

// Remove deletes an item. The lifecycle never deletes items itself; removal is
// allowed only once the item has left the active pipeline.
func (s *Store) Remove(ctx context.Context, id int64) error {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !item.State.IsTerminal() && item.State != StateError {
		return fmt.Errorf("%w: item %d is %s", ErrNotRemovable, id, item.State)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM content_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

const itemColumns = "id, title, body, sections_json, state, video_ref, remote_id, scheduled_at, idempotency_token, error_detail, error_state, created_at, updated_at, version"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		title        string
		body         string
		sections     sql.NullString
		stateStr     string
		videoRef     sql.NullString
		remoteID     sql.NullString
		scheduledRaw sql.NullString
		token        sql.NullString
		errorDetail  sql.NullString
		errorState   sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		version      int64
	)

	if err := scanner.Scan(
		&id,
		&title,
		&body,
		&sections,
		&stateStr,
		&videoRef,
		&remoteID,
		&scheduledRaw,
		&token,
		&errorDetail,
		&errorState,
		&createdRaw,
		&updatedRaw,
		&version,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:               id,
		Title:            title,
		Body:             body,
		SectionsJSON:     sections.String,
		State:            State(stateStr),
		VideoRef:         videoRef.String,
		RemoteID:         remoteID.String,
		IdempotencyToken: token.String,
		ErrorDetail:      errorDetail.String,
		ErrorState:       State(errorState.String),
		Version:          version,
	}

	if scheduledRaw.Valid {
		if at, err := parseTimeString(scheduledRaw.String); err == nil {
			item.ScheduledAt = &at
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
