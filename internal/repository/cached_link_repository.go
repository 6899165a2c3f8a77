package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/linklet/linklet/internal/model"
)

// CachedLinkRepository wraps a LinkRepository with a Redis cache-aside
// layer on the hot-path lookup. A nil or unreachable cache degrades to
// plain database reads; cache failures never surface to callers.
type CachedLinkRepository struct {
	db    *LinkRepository
	cache *redis.Client
	ttl   time.Duration
}

// NewCachedLinkRepository creates the caching wrapper. cache may be nil.
func NewCachedLinkRepository(db *LinkRepository, cache *redis.Client, ttl time.Duration) *CachedLinkRepository {
	return &CachedLinkRepository{db: db, cache: cache, ttl: ttl}
}

func cacheKey(code string) string {
	return fmt.Sprintf("link:%s", code)
}

// cachedLink is the cache serialization of a link. model.Link hides
// PasswordHash from API and fan-out payloads with json:"-", but the
// cache must round-trip it or a protected link would resolve ungated
// on every hit. The outer field shadows the embedded one so only this
// representation carries the hash.
type cachedLink struct {
	model.Link
	PasswordHash *string `json:"password_hash,omitempty"`
}

func newCachedLink(link *model.Link) cachedLink {
	return cachedLink{Link: *link, PasswordHash: link.PasswordHash}
}

func (c cachedLink) toLink() *model.Link {
	link := c.Link
	link.PasswordHash = c.PasswordHash
	return &link
}

// Lookup resolves a short code with cache-aside semantics. Cached rows
// re-run the expiry check so an entry written just before its link
// expired cannot resurrect it.
func (r *CachedLinkRepository) Lookup(ctx context.Context, code string) (*model.Link, error) {
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, cacheKey(code)).Result(); err == nil {
			var entry cachedLink
			if err := json.Unmarshal([]byte(cached), &entry); err == nil {
				link := entry.toLink()
				if link.IsActive && (link.ExpiresAt == nil || link.ExpiresAt.After(time.Now())) {
					return link, nil
				}
				// Stale entry; fall through to the database.
				r.cache.Del(ctx, cacheKey(code))
			}
		}
	}

	link, err := r.db.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		ttl := r.ttl
		if link.ExpiresAt != nil {
			if until := time.Until(*link.ExpiresAt); until < ttl {
				ttl = until
			}
		}
		if ttl > 0 {
			if data, err := json.Marshal(newCachedLink(link)); err == nil {
				r.cache.Set(ctx, cacheKey(code), data, ttl)
			}
		}
	}

	return link, nil
}

// GetByCode reads through to the database. Owner-facing reads want the
// live click count, so they bypass the cache.
func (r *CachedLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	return r.db.GetByCode(ctx, code)
}

// Create writes through to the database.
func (r *CachedLinkRepository) Create(ctx context.Context, link *model.Link) error {
	return r.db.Create(ctx, link)
}

// Update writes through and invalidates the cached entry.
func (r *CachedLinkRepository) Update(ctx context.Context, link *model.Link) error {
	if err := r.db.Update(ctx, link); err != nil {
		return err
	}
	r.invalidate(ctx, link.ShortCode)
	return nil
}

// Deactivate soft-deletes and invalidates the cached entry.
func (r *CachedLinkRepository) Deactivate(ctx context.Context, code string) error {
	if err := r.db.Deactivate(ctx, code); err != nil {
		return err
	}
	r.invalidate(ctx, code)
	return nil
}

// IncrementClickCount passes through. The cached copy's count goes
// stale until the TTL rolls it over; the redirect path never reads the
// count from cache for correctness.
func (r *CachedLinkRepository) IncrementClickCount(ctx context.Context, id uuid.UUID) error {
	return r.db.IncrementClickCount(ctx, id)
}

func (r *CachedLinkRepository) invalidate(ctx context.Context, code string) {
	if r.cache != nil {
		r.cache.Del(ctx, cacheKey(code))
	}
}

// Ensure CachedLinkRepository implements LinkStore at compile time
var _ LinkStore = (*CachedLinkRepository)(nil)
