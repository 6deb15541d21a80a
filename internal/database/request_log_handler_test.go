package database

import (
	"context"
	"testing"
	"time"

	"wishwall/internal/domain"
)

func seedRequestLogs(t *testing.T, identity string, n int, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		entry := domain.RequestLog{
			IPAddress: identity,
			Endpoint:  "/api/messages",
			Method:    "GET",
			Status:    200,
			CreatedAt: at.Add(time.Duration(i) * time.Millisecond),
		}
		if err := DB.Create(&entry).Error; err != nil {
			t.Fatalf("seed request log: %v", err)
		}
	}
}

func TestCountRequestsSince(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	seedRequestLogs(t, "203.0.113.1", 5, now.Add(-10*time.Minute))
	seedRequestLogs(t, "203.0.113.1", 3, now.Add(-time.Minute))
	seedRequestLogs(t, "203.0.113.2", 7, now.Add(-time.Minute))

	count, err := CountRequestsSince(ctx, "203.0.113.1", now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 recent requests, got %d", count)
	}
}

func TestListRequestLogsPagination(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	seedRequestLogs(t, "203.0.113.3", 12, time.Now().Add(-time.Minute))

	logs, total, err := ListRequestLogs(ctx, 1, 5, "")
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if total != 12 {
		t.Fatalf("expected total 12, got %d", total)
	}
	if len(logs) != 5 {
		t.Fatalf("expected 5 rows on page 1, got %d", len(logs))
	}

	logs, _, err = ListRequestLogs(ctx, 3, 5, "")
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 rows on last page, got %d", len(logs))
	}
}

func TestListRequestLogsNewestFirst(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	old := domain.RequestLog{IPAddress: "203.0.113.4", Endpoint: "/old", Method: "GET", CreatedAt: now.Add(-time.Hour)}
	recent := domain.RequestLog{IPAddress: "203.0.113.4", Endpoint: "/recent", Method: "GET", CreatedAt: now}
	if err := DB.Create(&old).Error; err != nil {
		t.Fatalf("seed old: %v", err)
	}
	if err := DB.Create(&recent).Error; err != nil {
		t.Fatalf("seed recent: %v", err)
	}

	logs, _, err := ListRequestLogs(ctx, 1, 10, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 2 || logs[0].Endpoint != "/recent" {
		t.Fatalf("expected newest first, got %+v", logs)
	}
}

func TestListRequestLogsClampsLimit(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	seedRequestLogs(t, "203.0.113.5", 3, time.Now())

	logs, _, err := ListRequestLogs(ctx, 0, 9999, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected all rows, got %d", len(logs))
	}

	// A negative limit falls back to the default page size.
	if _, _, err := ListRequestLogs(ctx, 1, -1, ""); err != nil {
		t.Fatalf("negative limit: %v", err)
	}
}

func TestListRequestLogsFiltersByIdentity(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	seedRequestLogs(t, "203.0.113.6", 4, time.Now())
	seedRequestLogs(t, "203.0.113.7", 2, time.Now())

	logs, total, err := ListRequestLogs(ctx, 1, 10, "203.0.113.7")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(logs) != 2 {
		t.Fatalf("expected 2 filtered rows, got total=%d len=%d", total, len(logs))
	}
}

func TestGetSecurityCounters(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	if err := UpsertBan(ctx, "203.0.113.8", "flood", now.Add(time.Hour), false); err != nil {
		t.Fatalf("upsert ban: %v", err)
	}

	entries := []domain.RequestLog{
		{IPAddress: "203.0.113.8", Endpoint: "/", Method: "GET", Status: 200, CreatedAt: now},
		{IPAddress: "203.0.113.8", Endpoint: "/", Method: "GET", Status: 429, CreatedAt: now},
		{IPAddress: "203.0.113.9", Endpoint: "/", Method: "GET", Status: 403, CreatedAt: now},
	}
	for i := range entries {
		if err := DB.Create(&entries[i]).Error; err != nil {
			t.Fatalf("seed log: %v", err)
		}
	}

	counters, err := GetSecurityCounters(ctx, now)
	if err != nil {
		t.Fatalf("counters: %v", err)
	}
	if counters.ActiveBans != 1 {
		t.Errorf("expected 1 active ban, got %d", counters.ActiveBans)
	}
	if counters.TodayBans != 1 {
		t.Errorf("expected 1 ban today, got %d", counters.TodayBans)
	}
	if counters.TodayRequests != 3 {
		t.Errorf("expected 3 requests today, got %d", counters.TodayRequests)
	}
	if counters.TodayBlocked != 2 {
		t.Errorf("expected 2 blocked today, got %d", counters.TodayBlocked)
	}
	if len(counters.TopIdentities) == 0 || counters.TopIdentities[0].IPAddress != "203.0.113.8" {
		t.Errorf("expected 203.0.113.8 as top identity, got %+v", counters.TopIdentities)
	}
}
