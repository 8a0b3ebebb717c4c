package storage

import (
	"context"
	"testing"
)

func TestSetMerchantCategory_Overwrites(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.SetMerchantCategory(ctx, "SWIGGY", "shopping"); err != nil {
		t.Fatalf("SetMerchantCategory failed: %v", err)
	}
	if err := store.SetMerchantCategory(ctx, "SWIGGY", "food"); err != nil {
		t.Fatalf("SetMerchantCategory failed: %v", err)
	}

	merchants, err := store.MerchantCategories(ctx)
	if err != nil {
		t.Fatalf("MerchantCategories failed: %v", err)
	}
	if len(merchants) != 1 {
		t.Fatalf("Expected 1 merchant, got %d", len(merchants))
	}
	if merchants["SWIGGY"] != "food" {
		t.Errorf("Expected food, got %q", merchants["SWIGGY"])
	}
}

func TestSetMerchantCategory_EmptyMerchant(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	if err := store.SetMerchantCategory(context.Background(), "", "food"); err == nil {
		t.Fatal("Expected error for empty merchant")
	}
}
