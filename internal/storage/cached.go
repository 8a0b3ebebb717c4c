package storage

import (
	"context"
	"time"

	"github.com/Veraticus/smsledger/internal/cache"
	"github.com/Veraticus/smsledger/internal/model"
)

// CachedStorage serves sender rules, extraction rules, merchant categories and
// categories from process-local caches. Every write path through CachedStorage
// invalidates the affected cache before returning. Writes made by other
// processes are only seen after the TTL elapses.
//
// Values returned from cached reads are shared and must not be modified.
type CachedStorage struct {
	*SQLiteStorage

	senders    *cache.Cache[[]model.SenderRule]
	rules      *cache.Cache[[]model.ExtractionRule]
	merchants  *cache.Cache[map[string]string]
	categories *cache.Cache[[]model.Category]
}

// NewCachedStorage wraps store with read-mostly caches expiring after ttl.
// A ttl of zero disables expiry.
func NewCachedStorage(store *SQLiteStorage, ttl time.Duration) *CachedStorage {
	return &CachedStorage{
		SQLiteStorage: store,
		senders:       cache.New("senders", ttl, store.SenderRules),
		rules:         cache.New("extraction_rules", ttl, store.ExtractionRules),
		merchants:     cache.New("merchants", ttl, store.MerchantCategories),
		categories:    cache.New("categories", ttl, store.Categories),
	}
}

// SenderRules returns the cached sender rules.
func (c *CachedStorage) SenderRules(ctx context.Context) ([]model.SenderRule, error) {
	return c.senders.Get(ctx)
}

// AddSender stores a sender rule and invalidates the sender cache.
func (c *CachedStorage) AddSender(ctx context.Context, rule *model.SenderRule) error {
	defer c.senders.Invalidate()
	return c.SQLiteStorage.AddSender(ctx, rule)
}

// UpdateSenderStatus changes a sender's status and invalidates the sender cache.
func (c *CachedStorage) UpdateSenderStatus(ctx context.Context, id string, status model.SenderStatus) error {
	defer c.senders.Invalidate()
	return c.SQLiteStorage.UpdateSenderStatus(ctx, id, status)
}

// ExtractionRules returns the cached extraction rules.
func (c *CachedStorage) ExtractionRules(ctx context.Context) ([]model.ExtractionRule, error) {
	return c.rules.Get(ctx)
}

// UpsertExtractionRule stores a rule and invalidates the rule cache.
func (c *CachedStorage) UpsertExtractionRule(ctx context.Context, rule *model.ExtractionRule) error {
	defer c.rules.Invalidate()
	return c.SQLiteStorage.UpsertExtractionRule(ctx, rule)
}

// DeleteExtractionRule removes a rule and invalidates the rule cache.
func (c *CachedStorage) DeleteExtractionRule(ctx context.Context, id string) error {
	defer c.rules.Invalidate()
	return c.SQLiteStorage.DeleteExtractionRule(ctx, id)
}

// MerchantCategories returns the cached merchant table.
func (c *CachedStorage) MerchantCategories(ctx context.Context) (map[string]string, error) {
	return c.merchants.Get(ctx)
}

// SetMerchantCategory records a merchant category and invalidates the merchant cache.
func (c *CachedStorage) SetMerchantCategory(ctx context.Context, merchant, category string) error {
	defer c.merchants.Invalidate()
	return c.SQLiteStorage.SetMerchantCategory(ctx, merchant, category)
}

// Categories returns the cached category list.
func (c *CachedStorage) Categories(ctx context.Context) ([]model.Category, error) {
	return c.categories.Get(ctx)
}

// CreateCategory adds a category and invalidates the category cache.
func (c *CachedStorage) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	defer c.categories.Invalidate()
	return c.SQLiteStorage.CreateCategory(ctx, name)
}
