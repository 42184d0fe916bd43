package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:notifications_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate notifications: %v", err)
	}
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      enums.NotificationTypeOrderAlert,
		Title:     "Order update",
		Body:      "Your order is on the way.",
		CreatedAt: createdAt,
	}
	if err := db.Create(notification).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return notification
}

func TestListPaginatesNewestFirst(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedNotification(t, db, userID, base.Add(time.Duration(i)*time.Minute))
	}
	seedNotification(t, db, uuid.New(), base)

	first, err := svc.List(ctx, ListParams{UserID: userID, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(first.Items))
	}
	if first.Cursor == "" {
		t.Fatal("expected next cursor")
	}
	if !first.Items[0].CreatedAt.After(first.Items[1].CreatedAt) {
		t.Fatal("expected newest first ordering")
	}

	second, err := svc.List(ctx, ListParams{UserID: userID, Limit: 2, Cursor: first.Cursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Items) != 1 {
		t.Fatalf("second page items = %d, want 1", len(second.Items))
	}
	if second.Cursor != "" {
		t.Fatalf("expected empty cursor on last page, got %q", second.Cursor)
	}
}

func TestMarkReadScopesToOwner(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	ctx := context.Background()
	userID := uuid.New()
	notification := seedNotification(t, db, userID, time.Now().UTC())

	if err := svc.MarkRead(ctx, userID, notification.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	var got models.Notification
	if err := db.First(&got, "id = ?", notification.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !got.IsRead || got.ReadAt == nil {
		t.Fatalf("expected read flags set, got is_read=%v read_at=%v", got.IsRead, got.ReadAt)
	}

	// Marking again is a no-op, not an error.
	if err := svc.MarkRead(ctx, userID, notification.ID); err != nil {
		t.Fatalf("second mark read: %v", err)
	}

	err = svc.MarkRead(ctx, uuid.New(), notification.ID)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("foreign user: expected not found, got %v", err)
	}
}

func TestMarkAllReadCountsUpdates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()
	seedNotification(t, db, userID, now)
	seedNotification(t, db, userID, now.Add(time.Minute))
	seedNotification(t, db, uuid.New(), now)

	count, err := svc.MarkAllRead(ctx, userID)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if count != 2 {
		t.Fatalf("updated = %d, want 2", count)
	}

	unread, err := svc.List(ctx, ListParams{UserID: userID, UnreadOnly: true})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread.Items) != 0 {
		t.Fatalf("unread = %d, want 0", len(unread.Items))
	}
}
