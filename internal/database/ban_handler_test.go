package database

import (
	"context"
	"testing"
	"time"

	"wishwall/internal/domain"
)

func TestUpsertBanCreatesSingleRow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	expires := time.Now().Add(time.Hour)
	if err := UpsertBan(ctx, "203.0.113.9", "first offence", expires, false); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := UpsertBan(ctx, "203.0.113.9", "second offence", expires.Add(time.Hour), false); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	if err := db.Model(&domain.IPBan{}).Where("ip_address = ?", "203.0.113.9").Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one ban row, got %d", count)
	}

	var ban domain.IPBan
	if err := db.Where("ip_address = ?", "203.0.113.9").First(&ban).Error; err != nil {
		t.Fatalf("load ban: %v", err)
	}
	if ban.BanCount != 2 {
		t.Errorf("expected ban_count 2, got %d", ban.BanCount)
	}
	if ban.BanReason != "second offence" {
		t.Errorf("expected latest reason, got %q", ban.BanReason)
	}
}

func TestUpsertBanPermanentUsesSentinel(t *testing.T) {
	db := setupTestDB(t)

	if err := UpsertBan(context.Background(), "203.0.113.10", "abuse", time.Now(), true); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var ban domain.IPBan
	if err := db.Where("ip_address = ?", "203.0.113.10").First(&ban).Error; err != nil {
		t.Fatalf("load ban: %v", err)
	}
	if !ban.IsPermanent {
		t.Fatal("expected permanent ban")
	}
	if !ban.ExpiresAt.Equal(domain.PermanentBanSentinel) {
		t.Errorf("expected sentinel expiry, got %v", ban.ExpiresAt)
	}
}

func TestFindActiveBan(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	ban, err := FindActiveBan(ctx, "198.51.100.1")
	if err != nil {
		t.Fatalf("lookup missing: %v", err)
	}
	if ban != nil {
		t.Fatal("expected nil for unknown identity")
	}

	if err := UpsertBan(ctx, "198.51.100.1", "flood", time.Now().Add(time.Hour), false); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ban, err = FindActiveBan(ctx, "198.51.100.1")
	if err != nil {
		t.Fatalf("lookup active: %v", err)
	}
	if ban == nil || ban.BanReason != "flood" {
		t.Fatalf("expected active ban, got %+v", ban)
	}
}

func TestFindActiveBanIgnoresExpired(t *testing.T) {
	db := setupTestDB(t)

	expired := domain.IPBan{
		IPAddress: "198.51.100.2",
		BanReason: "old flood",
		BanCount:  1,
		BannedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("seed expired ban: %v", err)
	}

	ban, err := FindActiveBan(context.Background(), "198.51.100.2")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ban != nil {
		t.Fatalf("expected expired ban to be invisible, got %+v", ban)
	}
}

func TestDeleteBanIsIdempotent(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	if err := UpsertBan(ctx, "198.51.100.3", "flood", time.Now().Add(time.Hour), false); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := DeleteBan(ctx, "198.51.100.3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteBan(ctx, "198.51.100.3"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}

	ban, err := FindActiveBan(ctx, "198.51.100.3")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ban != nil {
		t.Fatal("expected ban to be gone")
	}
}

func TestListActiveBansExcludesExpired(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := UpsertBan(ctx, "198.51.100.4", "flood", time.Now().Add(time.Hour), false); err != nil {
		t.Fatalf("upsert active: %v", err)
	}
	if err := UpsertBan(ctx, "198.51.100.5", "abuse", time.Now(), true); err != nil {
		t.Fatalf("upsert permanent: %v", err)
	}
	expired := domain.IPBan{
		IPAddress: "198.51.100.6",
		BanReason: "old",
		BanCount:  1,
		BannedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	bans, err := ListActiveBans(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bans) != 2 {
		t.Fatalf("expected 2 active bans, got %d", len(bans))
	}
	for _, ban := range bans {
		if ban.IPAddress == "198.51.100.6" {
			t.Fatal("expired ban leaked into active list")
		}
	}
}
