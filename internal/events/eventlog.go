package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event is one row of the append-only event log.
type Event struct {
	Seq       int64           `json:"seq"`
	SiteID    string          `json:"siteId"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
}

// Log appends events to the event_log table. Readers page through it by
// sequence number.
type Log struct {
	db     *sql.DB
	siteID string
	now    func() time.Time
}

func NewLog(db *sql.DB, siteID string) *Log {
	if siteID == "" {
		siteID = "local"
	}
	return &Log{db: db, siteID: siteID, now: time.Now}
}

func (l *Log) Append(ctx context.Context, typ, key string, data []byte) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		l.siteID, typ, key, string(data), l.now().Unix())
	return err
}

// Publish satisfies report.EventPublisher.
func (l *Log) Publish(ctx context.Context, typ, key string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return l.Append(ctx, typ, key, b)
}

// Since returns up to limit events with seq greater than after.
func (l *Log) Since(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, `SELECT seq, site_id, typ, key, data, created_at
		FROM event_log WHERE seq > $1 ORDER BY seq LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}
