package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Migrate creates the schema if it does not exist. Run documents are stored
// as JSONB; the cluster road queries rehydrate the graph from the stored
// roads rather than joining per-segment rows.
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			ward_no TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			doc JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS runs_ward_created ON runs (ward_no, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY,
			url TEXT NOT NULL,
			events TEXT[] NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id UUID PRIMARY KEY,
			subscription_id UUID NOT NULL,
			event_type TEXT NOT NULL,
			url TEXT NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			payload JSONB NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INT NOT NULL DEFAULT 0,
			next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_error TEXT NOT NULL DEFAULT '',
			response_code INT NOT NULL DEFAULT 0,
			latency_ms INT NOT NULL DEFAULT 0,
			delivered_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS webhook_due ON webhook_deliveries (status, next_attempt_at)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) SaveRun(ctx context.Context, run model.Run) error {
	doc, err := json.Marshal(run)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO runs (id, ward_no, doc) VALUES ($1,$2,$3)`,
		run.ID, run.WardNo, doc)
	return err
}

func (p *Postgres) GetRun(ctx context.Context, id string) (model.Run, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `SELECT doc FROM runs WHERE id=$1`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, ErrNotFound
	}
	if err != nil {
		return model.Run{}, err
	}
	var run model.Run
	if err := json.Unmarshal(doc, &run); err != nil {
		return model.Run{}, err
	}
	return run, nil
}

func (p *Postgres) LatestRun(ctx context.Context, wardNo string) (model.Run, error) {
	var doc []byte
	var err error
	if wardNo != "" {
		err = p.db.QueryRowContext(ctx,
			`SELECT doc FROM runs WHERE ward_no=$1 ORDER BY created_at DESC LIMIT 1`, wardNo).Scan(&doc)
	} else {
		err = p.db.QueryRowContext(ctx,
			`SELECT doc FROM runs ORDER BY created_at DESC LIMIT 1`).Scan(&doc)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, ErrNotFound
	}
	if err != nil {
		return model.Run{}, err
	}
	var run model.Run
	if err := json.Unmarshal(doc, &run); err != nil {
		return model.Run{}, err
	}
	return run, nil
}

func (p *Postgres) ListRuns(ctx context.Context, wardNo, cursor string, limit int) ([]model.Run, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	// Cursor is the last returned id.
	var rows *sql.Rows
	var err error
	switch {
	case wardNo != "" && cursor != "":
		rows, err = p.db.QueryContext(ctx, `SELECT doc FROM runs WHERE ward_no=$1 AND id::text > $2 ORDER BY id LIMIT $3`, wardNo, cursor, limit)
	case wardNo != "":
		rows, err = p.db.QueryContext(ctx, `SELECT doc FROM runs WHERE ward_no=$1 ORDER BY id LIMIT $2`, wardNo, limit)
	case cursor != "":
		rows, err = p.db.QueryContext(ctx, `SELECT doc FROM runs WHERE id::text > $1 ORDER BY id LIMIT $2`, cursor, limit)
	default:
		rows, err = p.db.QueryContext(ctx, `SELECT doc FROM runs ORDER BY id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Run{}
	var last string
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, "", err
		}
		var run model.Run
		if err := json.Unmarshal(doc, &run); err != nil {
			return nil, "", err
		}
		out = append(out, run)
		last = run.ID
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	s := model.Subscription{ID: uuid.New().String(), URL: req.URL, Events: req.Events, Secret: req.Secret}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, url, events, secret) VALUES ($1,$2,$3,$4)`,
		s.ID, s.URL, pqStringArray(s.Events), s.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return s, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, url, array_to_json(events)::text, secret FROM subscriptions WHERE $1 = ANY(events) OR '*' = ANY(events)`, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (p *Postgres) ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, url, array_to_json(events)::text, secret FROM subscriptions WHERE id::text > $1 ORDER BY id LIMIT $2`, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, url, array_to_json(events)::text, secret FROM subscriptions ORDER BY id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out, err := scanSubscriptions(rows)
	if err != nil {
		return nil, "", err
	}
	var next string
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var events string
		if err := rows.Scan(&s.ID, &s.URL, &events, &s.Secret); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(events), &s.Events)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New().String()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload) VALUES ($1,$2,$3,$4,$5,$6)`,
		id, subscriptionID, eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, subscription_id::text, event_type, url, secret, payload, status, attempts
		 FROM webhook_deliveries
		 WHERE status IN ('pending','retry') AND next_attempt_at <= now()
		 ORDER BY next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if success {
		_, err := p.db.ExecContext(ctx,
			`UPDATE webhook_deliveries SET status='delivered', attempts=attempts+1, response_code=$2, latency_ms=$3, delivered_at=now() WHERE id=$1`,
			id, responseCode, latencyMs)
		return err
	}
	next := time.Now().Add(time.Minute)
	if nextAttemptAt != nil {
		next = *nextAttemptAt
	}
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET status='retry', attempts=attempts+1, next_attempt_at=$2, last_error=$3, response_code=$4, latency_ms=$5 WHERE id=$1`,
		id, next, lastError, responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET status='failed', last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1`,
		id, lastError, responseCode, latencyMs)
	return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, status string, limit int) ([]map[string]any, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if status != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, event_type, status, attempts, url, last_error FROM webhook_deliveries WHERE status=$1 ORDER BY next_attempt_at LIMIT $2`, status, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, event_type, status, attempts, url, last_error FROM webhook_deliveries ORDER BY next_attempt_at LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []map[string]any{}
	for rows.Next() {
		var id, eventType, st, url, lastError string
		var attempts int
		if err := rows.Scan(&id, &eventType, &st, &attempts, &url, &lastError); err != nil {
			return nil, err
		}
		item := map[string]any{"id": id, "eventType": eventType, "status": st, "attempts": attempts, "url": url}
		if lastError != "" {
			item["lastError"] = lastError
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// pqStringArray renders a []string as a Postgres array literal. nil keeps
// NULL out of NOT NULL columns by falling back to the empty array.
func pqStringArray(ss []string) any {
	if len(ss) == 0 {
		return "{}"
	}
	b := []byte{'{'}
	for i, s := range ss {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '"')
		for j := 0; j < len(s); j++ {
			if s[j] == '"' || s[j] == '\\' {
				b = append(b, '\\')
			}
			b = append(b, s[j])
		}
		b = append(b, '"')
	}
	b = append(b, '}')
	return string(b)
}
