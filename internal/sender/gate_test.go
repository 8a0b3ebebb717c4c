package sender

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/model"
)

type fakeSenderStore struct {
	listErr error
	addErr  error
	rules   []model.SenderRule
	added   int
}

func (f *fakeSenderStore) SenderRules(_ context.Context) ([]model.SenderRule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rules, nil
}

func (f *fakeSenderStore) AddSender(_ context.Context, rule *model.SenderRule) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added++
	rule.ID = "generated"
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeSenderStore) UpdateSenderStatus(_ context.Context, _ string, _ model.SenderStatus) error {
	return nil
}

func TestGate_IsTrusted(t *testing.T) {
	tests := []struct {
		name   string
		sender string
		rules  []model.SenderRule
		want   bool
	}{
		{
			name:   "approved sender",
			sender: "XX-ICICIB",
			rules:  []model.SenderRule{{Name: "ICICIB", Status: model.SenderApproved}},
			want:   true,
		},
		{
			name:   "unprocessed sender is trusted",
			sender: "AD-HDFCBK",
			rules:  []model.SenderRule{{Name: "hdfcbk", Status: model.SenderUnprocessed}},
			want:   true,
		},
		{
			name:   "rejected sender",
			sender: "VM-PROMOS",
			rules:  []model.SenderRule{{Name: "PROMOS", Status: model.SenderRejected}},
			want:   false,
		},
		{
			name:   "first matching rule wins",
			sender: "XX-ICICIB",
			rules: []model.SenderRule{
				{Name: "ICICI", Status: model.SenderRejected},
				{Name: "ICICIB", Status: model.SenderApproved},
			},
			want: false,
		},
		{
			name:   "missing separator",
			sender: "ICICIB",
			rules:  []model.SenderRule{{Name: "ICICIB", Status: model.SenderApproved}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeSenderStore{rules: tt.rules}
			gate := NewGate(store)
			assert.Equal(t, tt.want, gate.IsTrusted(context.Background(), tt.sender))
			assert.Zero(t, store.added)
		})
	}
}

func TestGate_RegistersUnseenSender(t *testing.T) {
	store := &fakeSenderStore{}
	gate := NewGate(store)
	ctx := context.Background()

	assert.False(t, gate.IsTrusted(ctx, "JM-SBIINB"))
	require.Len(t, store.rules, 1)
	assert.Equal(t, "SBIINB", store.rules[0].Name)
	assert.Equal(t, model.SenderUnprocessed, store.rules[0].Status)
	assert.Equal(t, model.ComparisonContains, store.rules[0].Comparison)

	// The registered rule now matches, and unprocessed senders are trusted.
	assert.True(t, gate.IsTrusted(ctx, "JM-SBIINB"))
	assert.Equal(t, 1, store.added)
}

func TestGate_StoreFailures(t *testing.T) {
	ctx := context.Background()

	gate := NewGate(&fakeSenderStore{listErr: errors.New("boom")})
	assert.False(t, gate.IsTrusted(ctx, "XX-ICICIB"))

	store := &fakeSenderStore{addErr: errors.New("boom")}
	gate = NewGate(store)
	assert.False(t, gate.IsTrusted(ctx, "XX-ICICIB"))
	assert.Empty(t, store.rules)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "ICICIB", DisplayName("XX-ICICIB"))
	assert.Equal(t, "HDFCBK", DisplayName("AD-HDFCBK-S"))
	assert.Equal(t, "", DisplayName("ICICIB"))
	assert.Equal(t, "", DisplayName("XX-"))
}
