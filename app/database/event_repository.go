package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var _ EventRepository = (*SQLEventRepository)(nil)

// SQLEventRepository is the sqlite-backed catalog store.
type SQLEventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *SQLEventRepository {
	return &SQLEventRepository{db: db}
}

const eventColumns = `id, title, date_time, venue_name, venue_address, city,
	description, category_tags, image_url, source_name, original_url,
	source_key, content_hash, status_tags, last_scraped_at, last_seen_at,
	is_active, imported, imported_at, imported_by, import_notes,
	extracted_content, content_extracted_at, content_extraction_status,
	content_extraction_error, created_at, updated_at`

func (r *SQLEventRepository) GetBySourceKey(sourceKey string) (*Event, error) {
	return r.getOne(`SELECT `+eventColumns+` FROM events WHERE source_key = ?`, sourceKey)
}

func (r *SQLEventRepository) GetByID(id string) (*Event, error) {
	return r.getOne(`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
}

func (r *SQLEventRepository) getOne(query string, arg interface{}) (*Event, error) {
	row := r.db.QueryRow(query, arg)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

func (r *SQLEventRepository) Create(event *Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	categoryTags, statusTags, err := marshalTags(event)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err = r.db.Exec(`
		INSERT INTO events (
			id, title, date_time, venue_name, venue_address, city,
			description, category_tags, image_url, source_name, original_url,
			source_key, content_hash, status_tags, last_scraped_at, last_seen_at,
			is_active, imported, imported_at, imported_by, import_notes,
			extracted_content, content_extracted_at, content_extraction_status,
			content_extraction_error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.Title, event.DateTime.UTC(), event.VenueName, event.VenueAddress, event.City,
		event.Description, categoryTags, event.ImageURL, event.SourceName, event.OriginalURL,
		event.SourceKey, event.ContentHash, statusTags, event.LastScrapedAt.UTC(), event.LastSeenAt.UTC(),
		event.IsActive, event.Imported, nullableTime(event.ImportedAt), event.ImportedBy, event.ImportNotes,
		event.ExtractedContent, nullableTime(event.ContentExtractedAt), extractionStatus(event),
		event.ContentExtractionError, event.CreatedAt, event.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

func (r *SQLEventRepository) Update(event *Event) error {
	categoryTags, statusTags, err := marshalTags(event)
	if err != nil {
		return err
	}

	event.UpdatedAt = time.Now().UTC()

	_, err = r.db.Exec(`
		UPDATE events SET
			title = ?, date_time = ?, venue_name = ?, venue_address = ?, city = ?,
			description = ?, category_tags = ?, image_url = ?, source_name = ?,
			original_url = ?, content_hash = ?, status_tags = ?,
			last_scraped_at = ?, last_seen_at = ?, is_active = ?, imported = ?,
			imported_at = ?, imported_by = ?, import_notes = ?, updated_at = ?
		WHERE id = ?
	`, event.Title, event.DateTime.UTC(), event.VenueName, event.VenueAddress, event.City,
		event.Description, categoryTags, event.ImageURL, event.SourceName,
		event.OriginalURL, event.ContentHash, statusTags,
		event.LastScrapedAt.UTC(), event.LastSeenAt.UTC(), event.IsActive, event.Imported,
		nullableTime(event.ImportedAt), event.ImportedBy, event.ImportNotes, event.UpdatedAt,
		event.ID)

	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	return nil
}

func (r *SQLEventRepository) GetActiveBySource(sourceName string) ([]Event, error) {
	return r.queryEvents(`
		SELECT `+eventColumns+`
		FROM events
		WHERE source_name = ? AND is_active = 1
	`, sourceName)
}

func (r *SQLEventRepository) GetActiveStartedBefore(cutoff time.Time) ([]Event, error) {
	return r.queryEvents(`
		SELECT `+eventColumns+`
		FROM events
		WHERE is_active = 1 AND date_time < ?
	`, cutoff.UTC())
}

func (r *SQLEventRepository) List(filter EventFilter) ([]Event, int, error) {
	where, args := buildListFilter(filter)

	var total int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM events `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 25
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	listArgs := append(append([]interface{}{}, args...), limit, (page-1)*limit)
	events, err := r.queryEvents(`
		SELECT `+eventColumns+`
		FROM events `+where+`
		ORDER BY date_time ASC
		LIMIT ? OFFSET ?
	`, listArgs...)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func buildListFilter(filter EventFilter) (string, []interface{}) {
	conditions := []string{"1 = 1"}
	var args []interface{}

	if filter.City != "" {
		conditions = append(conditions, "city = ? COLLATE NOCASE")
		args = append(args, filter.City)
	}

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = 1")
	}

	if filter.Query != "" {
		pattern := "%" + escapeLike(filter.Query) + "%"
		conditions = append(conditions, `(title LIKE ? ESCAPE '\' COLLATE NOCASE
			OR venue_name LIKE ? ESCAPE '\' COLLATE NOCASE
			OR description LIKE ? ESCAPE '\' COLLATE NOCASE)`)
		args = append(args, pattern, pattern, pattern)
	}

	if filter.Status != "" {
		// Status tags are stored as a JSON array of quoted strings.
		conditions = append(conditions, "status_tags LIKE ?")
		args = append(args, `%"`+string(filter.Status)+`"%`)
	}

	if filter.From != nil {
		conditions = append(conditions, "date_time >= ?")
		args = append(args, filter.From.UTC())
	}

	if filter.To != nil {
		conditions = append(conditions, "date_time <= ?")
		args = append(args, filter.To.UTC())
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

func (r *SQLEventRepository) GetCityLastScrapedAt(city string) (*time.Time, error) {
	var last sql.NullTime
	err := r.db.QueryRow(`
		SELECT MAX(last_scraped_at) FROM events WHERE city = ? COLLATE NOCASE
	`, city).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to get city last scraped time: %w", err)
	}

	if !last.Valid {
		return nil, nil
	}
	t := last.Time
	return &t, nil
}

func (r *SQLEventRepository) GetStats() (EventStats, error) {
	var stats EventStats
	err := r.db.QueryRow(`
		SELECT
			COUNT(*) AS total,
			SUM(CASE WHEN is_active = 1 THEN 1 ELSE 0 END) AS active,
			SUM(CASE WHEN is_active = 0 THEN 1 ELSE 0 END) AS inactive,
			SUM(CASE WHEN imported = 1 THEN 1 ELSE 0 END) AS imported
		FROM events
	`).Scan(&stats.Total, &stats.Active, &stats.Inactive, &stats.Imported)

	if err != nil {
		return EventStats{}, fmt.Errorf("failed to get event stats: %w", err)
	}

	return stats, nil
}

func (r *SQLEventRepository) GetEventCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get event count: %w", err)
	}
	return count, nil
}

func (r *SQLEventRepository) GetEventsForEnrichment(limit int) ([]EventForEnrichment, error) {
	rows, err := r.db.Query(`
		SELECT id, original_url
		FROM events
		WHERE is_active = 1
		  AND description = ''
		  AND content_extraction_status = 'pending'
		  AND original_url LIKE 'http%'
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for enrichment: %w", err)
	}
	defer rows.Close()

	var events []EventForEnrichment
	for rows.Next() {
		var event EventForEnrichment
		if err := rows.Scan(&event.ID, &event.OriginalURL); err != nil {
			return nil, fmt.Errorf("failed to scan enrichment row: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrichment rows: %w", err)
	}

	return events, nil
}

func (r *SQLEventRepository) UpdateExtractedContent(id string, content string, extractedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE events
		SET extracted_content = ?, content_extracted_at = ?,
		    content_extraction_status = 'success', content_extraction_error = ''
		WHERE id = ?
	`, content, extractedAt.UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}
	return nil
}

func (r *SQLEventRepository) UpdateExtractionStatus(id string, status string, extractedAt time.Time, extractionError string) error {
	_, err := r.db.Exec(`
		UPDATE events
		SET content_extraction_status = ?, content_extracted_at = ?,
		    content_extraction_error = ?
		WHERE id = ?
	`, status, extractedAt.UTC(), extractionError, id)

	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}
	return nil
}

func (r *SQLEventRepository) queryEvents(query string, args ...interface{}) ([]Event, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, *event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row scannable) (*Event, error) {
	var (
		event        Event
		categoryTags string
		statusTags   string
		importedAt   sql.NullTime
		extractedAt  sql.NullTime
	)

	err := row.Scan(
		&event.ID, &event.Title, &event.DateTime, &event.VenueName, &event.VenueAddress,
		&event.City, &event.Description, &categoryTags, &event.ImageURL, &event.SourceName,
		&event.OriginalURL, &event.SourceKey, &event.ContentHash, &statusTags,
		&event.LastScrapedAt, &event.LastSeenAt, &event.IsActive, &event.Imported,
		&importedAt, &event.ImportedBy, &event.ImportNotes,
		&event.ExtractedContent, &extractedAt, &event.ContentExtractionStatus,
		&event.ContentExtractionError, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(categoryTags), &event.CategoryTags); err != nil {
		return nil, fmt.Errorf("failed to decode category tags: %w", err)
	}
	if err := json.Unmarshal([]byte(statusTags), &event.StatusTags); err != nil {
		return nil, fmt.Errorf("failed to decode status tags: %w", err)
	}

	if importedAt.Valid {
		t := importedAt.Time
		event.ImportedAt = &t
	}
	if extractedAt.Valid {
		t := extractedAt.Time
		event.ContentExtractedAt = &t
	}

	return &event, nil
}

func marshalTags(event *Event) (string, string, error) {
	if event.CategoryTags == nil {
		event.CategoryTags = []string{}
	}

	categoryTags, err := json.Marshal(event.CategoryTags)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode category tags: %w", err)
	}

	statusTags, err := json.Marshal(event.StatusTags)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode status tags: %w", err)
	}

	return string(categoryTags), string(statusTags), nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func extractionStatus(event *Event) string {
	if event.ContentExtractionStatus == "" {
		return "pending"
	}
	return event.ContentExtractionStatus
}
