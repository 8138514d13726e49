package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu     sync.Mutex
	runs   map[string]model.Run        // id -> run
	order  []string                    // run ids in save order
	byWard map[string][]string         // ward -> run ids in save order
	subs   map[string]model.Subscription
	subIDs []string
	// Webhooks queue state
	deliveries  map[string]*memDelivery // id -> delivery state
	deliveryIDs []string                // enqueue order
}

func NewMemory() *Memory {
	return &Memory{
		runs:       map[string]model.Run{},
		byWard:     map[string][]string{},
		subs:       map[string]model.Subscription{},
		deliveries: map[string]*memDelivery{},
	}
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	DeliveredAt   *time.Time
}

func (m *Memory) SaveRun(ctx context.Context, run model.Run) error {
	m.mu.Lock(); defer m.mu.Unlock()
	m.runs[run.ID] = run
	m.order = append(m.order, run.ID)
	m.byWard[run.WardNo] = append(m.byWard[run.WardNo], run.ID)
	return nil
}

func (m *Memory) GetRun(ctx context.Context, id string) (model.Run, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok { return model.Run{}, ErrNotFound }
	return r, nil
}

func (m *Memory) LatestRun(ctx context.Context, wardNo string) (model.Run, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	ids := m.order
	if wardNo != "" { ids = m.byWard[wardNo] }
	if len(ids) == 0 { return model.Run{}, ErrNotFound }
	return m.runs[ids[len(ids)-1]], nil
}

func (m *Memory) ListRuns(ctx context.Context, wardNo, cursor string, limit int) ([]model.Run, string, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	ids := m.order
	if wardNo != "" { ids = m.byWard[wardNo] }
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor { start = i + 1; break }
		}
	}
	if limit <= 0 { limit = 100 }
	out := []model.Run{}
	var next string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		out = append(out, m.runs[ids[i]])
		next = ids[i]
	}
	if len(out) < limit { next = "" }
	return out, next, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	s := model.Subscription{ID: uuid.New().String(), URL: req.URL, Events: req.Events, Secret: req.Secret}
	m.subs[s.ID] = s
	m.subIDs = append(m.subIDs, s.ID)
	return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	out := []model.Subscription{}
	for _, id := range m.subIDs {
		s := m.subs[id]
		for _, ev := range s.Events {
			if ev == eventType || ev == "*" { out = append(out, s); break }
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	start := 0
	if cursor != "" {
		for i, id := range m.subIDs {
			if id == cursor { start = i + 1; break }
		}
	}
	if limit <= 0 { limit = 100 }
	out := []model.Subscription{}
	var next string
	for i := start; i < len(m.subIDs) && len(out) < limit; i++ {
		out = append(out, m.subs[m.subIDs[i]])
		next = m.subIDs[i]
	}
	if len(out) < limit { next = "" }
	return out, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, id string) error {
	m.mu.Lock(); defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok { return ErrNotFound }
	delete(m.subs, id)
	out := make([]string, 0, len(m.subIDs))
	for _, v := range m.subIDs { if v != id { out = append(out, v) } }
	m.subIDs = out
	return nil
}

// Webhook deliveries
func (m *Memory) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	id := uuid.New().String()
	d := &memDelivery{WebhookDelivery: WebhookDelivery{ID: id, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending", Attempts: 0}, NextAttemptAt: time.Now()}
	m.deliveries[id] = d
	m.deliveryIDs = append(m.deliveryIDs, id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	for _, id := range m.deliveryIDs {
		d := m.deliveries[id]
		if d == nil { continue }
		if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
			out = append(out, d.WebhookDelivery)
			if limit > 0 && len(out) >= limit { break }
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock(); defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil { return nil }
	d.Attempts++
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = "delivered"
		now := time.Now()
		d.DeliveredAt = &now
	} else {
		d.Status = "retry"
		d.LastError = lastError
		if nextAttemptAt != nil { d.NextAttemptAt = *nextAttemptAt } else { d.NextAttemptAt = time.Now().Add(1 * time.Minute) }
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock(); defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil { return nil }
	d.Status = "failed"
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, status string, limit int) ([]map[string]any, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	out := []map[string]any{}
	for _, id := range m.deliveryIDs {
		d := m.deliveries[id]
		if d == nil { continue }
		if status == "" || d.Status == status {
			item := map[string]any{"id": d.ID, "eventType": d.EventType, "status": d.Status, "attempts": d.Attempts, "url": d.URL}
			if !d.NextAttemptAt.IsZero() { item["nextAttemptAt"] = d.NextAttemptAt }
			if d.LastError != "" { item["lastError"] = d.LastError }
			out = append(out, item)
			if limit > 0 && len(out) >= limit { break }
		}
	}
	return out, nil
}
