package guestsync

import (
	"context"
	"errors"
	"testing"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	"gorm.io/gorm"
)

type slotKey struct {
	userID   int64
	date     string
	mealType enums.MealType
}

type stubSlotStore struct {
	rows      map[slotKey]*models.MealRecord
	nextID    int64
	creates   int
	lookups   int
	failDish  string
	failError error
}

func newStubSlotStore() *stubSlotStore {
	return &stubSlotStore{rows: map[slotKey]*models.MealRecord{}, nextID: 1}
}

func (s *stubSlotStore) Create(_ context.Context, record *models.MealRecord) (*models.MealRecord, error) {
	s.creates++
	if s.failDish != "" && record.DishName == s.failDish {
		return nil, s.failError
	}
	record.ID = s.nextID
	s.nextID++
	s.rows[slotKey{record.UserID, record.MealDate, record.MealType}] = record
	return record, nil
}

func (s *stubSlotStore) FindSlot(_ context.Context, userID int64, date string, mealType enums.MealType) (*models.MealRecord, error) {
	s.lookups++
	if row, ok := s.rows[slotKey{userID, date, mealType}]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestService(t *testing.T, store slotStore) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Store: store})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func localRecord(id, date string, mealType enums.MealType, dish string) LocalRecord {
	return LocalRecord{
		LocalID:   id,
		MealDate:  date,
		MealType:  mealType,
		DishName:  dish,
		Category:  enums.MealCategoryJapanese,
		CreatedAt: date + "T12:00:00Z",
	}
}

func TestMigrateEmptyListTouchesNothing(t *testing.T) {
	store := newStubSlotStore()
	svc := newTestService(t, store)

	result, err := svc.Migrate(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if result.MigratedCount != 0 || len(result.Items) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if store.creates != 0 || store.lookups != 0 {
		t.Fatal("empty input must not touch the store")
	}
}

func TestMigrateInsertsFreshRecords(t *testing.T) {
	store := newStubSlotStore()
	svc := newTestService(t, store)

	result, err := svc.Migrate(context.Background(), 1, []LocalRecord{
		localRecord("local-1", "2025-12-16", enums.MealTypeLunch, "カレーライス"),
		localRecord("local-2", "2025-12-16", enums.MealTypeDinner, "肉じゃが"),
	})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if result.MigratedCount != 2 {
		t.Fatalf("expected 2 inserts, got %d", result.MigratedCount)
	}
	for _, item := range result.Items {
		if !item.Migrated || item.RecordID == 0 || item.Error != "" {
			t.Fatalf("unexpected item %+v", item)
		}
	}
	if result.Items[0].LocalID != "local-1" || result.Items[0].LocalCreatedAt != "2025-12-16T12:00:00Z" {
		t.Fatalf("local identity not carried through: %+v", result.Items[0])
	}
}

func TestMigrateSecondRunIsSuppressed(t *testing.T) {
	store := newStubSlotStore()
	svc := newTestService(t, store)

	records := []LocalRecord{localRecord("local-1", "2025-12-16", enums.MealTypeLunch, "カレーライス")}

	first, err := svc.Migrate(context.Background(), 1, records)
	if err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if first.MigratedCount != 1 {
		t.Fatalf("first run should insert, got %d", first.MigratedCount)
	}

	second, err := svc.Migrate(context.Background(), 1, records)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if second.MigratedCount != 0 {
		t.Fatalf("second run should skip, got %d", second.MigratedCount)
	}
	if !second.Items[0].Skipped || second.Items[0].Migrated {
		t.Fatalf("expected skipped item, got %+v", second.Items[0])
	}
}

func TestMigrateDedupIsPerUser(t *testing.T) {
	store := newStubSlotStore()
	svc := newTestService(t, store)

	records := []LocalRecord{localRecord("local-1", "2025-12-16", enums.MealTypeLunch, "カレーライス")}
	if _, err := svc.Migrate(context.Background(), 1, records); err != nil {
		t.Fatalf("user 1 migrate: %v", err)
	}

	result, err := svc.Migrate(context.Background(), 2, records)
	if err != nil {
		t.Fatalf("user 2 migrate: %v", err)
	}
	if result.MigratedCount != 1 {
		t.Fatal("same slot under a different user must still insert")
	}
}

func TestMigrateOneFailureDoesNotAbortBatch(t *testing.T) {
	store := newStubSlotStore()
	store.failDish = "壊れた"
	store.failError = errors.New("insert failed")
	svc := newTestService(t, store)

	result, err := svc.Migrate(context.Background(), 1, []LocalRecord{
		localRecord("local-1", "2025-12-16", enums.MealTypeLunch, "カレーライス"),
		localRecord("local-2", "2025-12-17", enums.MealTypeLunch, "壊れた"),
		localRecord("local-3", "2025-12-18", enums.MealTypeLunch, "味噌汁"),
	})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if result.MigratedCount != 2 {
		t.Fatalf("expected 2 inserts around the failure, got %d", result.MigratedCount)
	}
	if result.Items[1].Error != "insert failed" || result.Items[1].Migrated {
		t.Fatalf("expected captured error on item 2, got %+v", result.Items[1])
	}
	if !result.Items[2].Migrated {
		t.Fatal("record after the failure should still be inserted")
	}
}

func TestMigrateRejectsInvalidRecordsIndividually(t *testing.T) {
	store := newStubSlotStore()
	svc := newTestService(t, store)

	bad := localRecord("local-1", "2025/12/16", enums.MealTypeLunch, "カレーライス")
	good := localRecord("local-2", "2025-12-16", enums.MealTypeDinner, "肉じゃが")

	result, err := svc.Migrate(context.Background(), 1, []LocalRecord{bad, good})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if result.MigratedCount != 1 {
		t.Fatalf("expected 1 insert, got %d", result.MigratedCount)
	}
	if result.Items[0].Error == "" || result.Items[0].Migrated || result.Items[0].Skipped {
		t.Fatalf("invalid record should carry an error, got %+v", result.Items[0])
	}
}
