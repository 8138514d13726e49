package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

func TestMemoryRunsLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.GetRun(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := m.LatestRun(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound on empty store, got %v", err)
	}

	for i, ward := range []string{"1", "2", "1"} {
		run := model.Run{ID: string(rune('a' + i)), WardNo: ward}
		if err := m.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	got, err := m.GetRun(ctx, "b")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.WardNo != "2" {
		t.Fatalf("want ward 2, got %s", got.WardNo)
	}

	latest, err := m.LatestRun(ctx, "")
	if err != nil || latest.ID != "c" {
		t.Fatalf("latest overall: want c, got %v (%v)", latest.ID, err)
	}
	latest, err = m.LatestRun(ctx, "2")
	if err != nil || latest.ID != "b" {
		t.Fatalf("latest ward 2: want b, got %v (%v)", latest.ID, err)
	}

	ward1, _, err := m.ListRuns(ctx, "1", "", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(ward1) != 2 || ward1[0].ID != "a" || ward1[1].ID != "c" {
		t.Fatalf("ward 1 runs in save order expected, got %+v", ward1)
	}

	// Cursor pagination.
	page, next, err := m.ListRuns(ctx, "", "", 2)
	if err != nil || len(page) != 2 || next != "b" {
		t.Fatalf("page 1: %v next=%q err=%v", page, next, err)
	}
	page, next, err = m.ListRuns(ctx, "", next, 2)
	if err != nil || len(page) != 1 || page[0].ID != "c" || next != "" {
		t.Fatalf("page 2: %v next=%q err=%v", page, next, err)
	}
}

func TestMemorySubscriptions(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	s1, err := m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://a", Events: []string{"run.completed"}})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	s2, _ := m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://b", Events: []string{"*"}})
	_, _ = m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://c", Events: []string{"vehicle.updated"}})

	subs, err := m.GetSubscriptionsForEvent(ctx, "run.completed")
	if err != nil {
		t.Fatalf("GetSubscriptionsForEvent: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != s1.ID || subs[1].ID != s2.ID {
		t.Fatalf("want exact + wildcard matches, got %+v", subs)
	}

	if err := m.DeleteSubscription(ctx, s1.ID); err != nil {
		t.Fatalf("DeleteSubscription: %v", err)
	}
	if err := m.DeleteSubscription(ctx, s1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
	all, _, err := m.ListSubscriptions(ctx, "", 10)
	if err != nil || len(all) != 2 {
		t.Fatalf("want 2 remaining, got %d (%v)", len(all), err)
	}
}

func TestMemoryWebhookQueue(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.EnqueueWebhook(ctx, "sub1", "run.completed", "http://x", "sec", []byte(`{"run_id":"r1"}`))
	if err != nil {
		t.Fatalf("EnqueueWebhook: %v", err)
	}

	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	if err != nil || len(due) != 1 || due[0].ID != id {
		t.Fatalf("due: %+v err=%v", due, err)
	}

	// Schedule a retry in the future; nothing should be due.
	next := time.Now().Add(time.Hour)
	if err := m.MarkWebhookDelivery(ctx, id, false, &next, "boom", 500, 12); err != nil {
		t.Fatalf("MarkWebhookDelivery: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("want nothing due, got %+v", due)
	}

	items, err := m.ListWebhookDeliveries(ctx, "retry", 10)
	if err != nil || len(items) != 1 {
		t.Fatalf("retry list: %+v err=%v", items, err)
	}
	if items[0]["attempts"] != 1 || items[0]["lastError"] != "boom" {
		t.Fatalf("unexpected delivery state: %+v", items[0])
	}

	if err := m.FailWebhookDelivery(ctx, id, "gave up", 500, 5); err != nil {
		t.Fatalf("FailWebhookDelivery: %v", err)
	}
	items, _ = m.ListWebhookDeliveries(ctx, "failed", 10)
	if len(items) != 1 {
		t.Fatalf("want 1 failed delivery, got %+v", items)
	}
}

func TestPQStringArray(t *testing.T) {
	if v := pqStringArray(nil); v != "{}" {
		t.Fatalf("nil slice -> {} expected, got %v", v)
	}
	if v := pqStringArray([]string{"a", `b"c`}); v != `{"a","b\"c"}` {
		t.Fatalf("unexpected literal: %v", v)
	}
}
