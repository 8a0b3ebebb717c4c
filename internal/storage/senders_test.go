package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

func TestSenders_RegistrationOrder(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	names := []string{"ICICIB", "HDFCBK", "AXISBK"}
	for _, name := range names {
		rule := &model.SenderRule{Name: name, Status: model.SenderApproved}
		if err := store.AddSender(ctx, rule); err != nil {
			t.Fatalf("Failed to add sender %s: %v", name, err)
		}
		if rule.ID == "" {
			t.Errorf("Sender %s was not assigned an ID", name)
		}
	}

	rules, err := store.SenderRules(ctx)
	if err != nil {
		t.Fatalf("Failed to list senders: %v", err)
	}
	if len(rules) != len(names) {
		t.Fatalf("Got %d senders, want %d", len(rules), len(names))
	}
	for i, rule := range rules {
		if rule.Name != names[i] {
			t.Errorf("Sender %d = %s, want %s", i, rule.Name, names[i])
		}
		if rule.Comparison != model.ComparisonContains {
			t.Errorf("Sender %s comparison = %s, want contains", rule.Name, rule.Comparison)
		}
	}
}

func TestAddSender_DefaultsToUnprocessed(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	rule := &model.SenderRule{Name: "NEWBNK"}
	if err := store.AddSender(ctx, rule); err != nil {
		t.Fatalf("Failed to add sender: %v", err)
	}
	if rule.Status != model.SenderUnprocessed {
		t.Errorf("Status = %s, want unprocessed", rule.Status)
	}
}

func TestAddSender_Invalid(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.AddSender(ctx, &model.SenderRule{Name: " "}); !errors.Is(err, ErrInvalidSender) {
		t.Errorf("Expected ErrInvalidSender, got %v", err)
	}
	if err := store.AddSender(ctx, &model.SenderRule{Name: "X", Status: "maybe"}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got %v", err)
	}
}

func TestUpdateSenderStatus(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	rule := &model.SenderRule{Name: "SPAMMR"}
	if err := store.AddSender(ctx, rule); err != nil {
		t.Fatalf("Failed to add sender: %v", err)
	}

	if err := store.UpdateSenderStatus(ctx, rule.ID, model.SenderRejected); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}

	rules, err := store.SenderRules(ctx)
	if err != nil {
		t.Fatalf("Failed to list senders: %v", err)
	}
	if rules[0].Status != model.SenderRejected {
		t.Errorf("Status = %s, want rejected", rules[0].Status)
	}

	if err := store.UpdateSenderStatus(ctx, "missing", model.SenderApproved); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
