package core

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheEntry holds one decoded record resident in a TokenCache.
type cacheEntry struct {
	value any
}

// TokenCache sits above a TokenDatabase session and solves two problems
// (spec.md §4.3): avoiding repeated decode of hot records during a
// transaction, and ensuring at most one logical copy of a record is being
// mutated within a session. hot is a read-through decode cache shared
// across sessions; dirty/clean are session-scoped and disjoint.
type TokenCache struct {
	db      *TokenDatabase
	session *Session
	hot     *lru.Cache[string, any]
	dirty   map[tokenKey]*cacheEntry
	clean   map[tokenKey]*cacheEntry

	dirtyAssets map[assetKey]*cacheEntry
	cleanAssets map[assetKey]*cacheEntry
}

// NewHotCache builds the shared read-through decode cache. size bounds the
// number of resident decoded records.
func NewHotCache(size int) *lru.Cache[string, any] {
	c, err := lru.New[string, any](size)
	if err != nil {
		panic(err)
	}
	return c
}

func NewTokenCache(db *TokenDatabase, session *Session, hot *lru.Cache[string, any]) *TokenCache {
	return &TokenCache{
		db:          db,
		session:     session,
		hot:         hot,
		dirty:       make(map[tokenKey]*cacheEntry),
		clean:       make(map[tokenKey]*cacheEntry),
		dirtyAssets: make(map[assetKey]*cacheEntry),
		cleanAssets: make(map[assetKey]*cacheEntry),
	}
}

func (c *TokenCache) lookupAny(tk tokenKey) (any, bool) {
	if e, ok := c.dirty[tk]; ok {
		return e.value, true
	}
	if e, ok := c.clean[tk]; ok {
		return e.value, true
	}
	return nil, false
}

// ReadToken decodes (once per session) and returns a handle shared within
// the session. Fails with UnknownKey unless noThrow.
func ReadToken[T any](c *TokenCache, typ TokenType, prefix, key string, noThrow bool, decode func([]byte) (T, error)) (*T, error) {
	tk, err := makeTokenKey(typ, prefix, key)
	if err != nil {
		return nil, err
	}
	if v, ok := c.lookupAny(tk); ok {
		tv, ok := v.(*T)
		if !ok {
			return nil, newChainError(ErrCacheMisuse, "cached value has unexpected type for key", "key", tk.String())
		}
		return tv, nil
	}
	if v, ok := c.hot.Get(tk.String()); ok {
		if tv, ok := v.(*T); ok {
			c.clean[tk] = &cacheEntry{value: tv}
			return tv, nil
		}
	}
	raw, err := c.db.ReadToken(typ, prefix, key, noThrow)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	val, err := decode(raw)
	if err != nil {
		return nil, err
	}
	p := &val
	c.clean[tk] = &cacheEntry{value: p}
	c.hot.Add(tk.String(), p)
	return p, nil
}

// LookupToken returns the handle only if already resident in the session's
// dirty or clean set (no TDB/hot-cache fallthrough).
func LookupToken[T any](c *TokenCache, typ TokenType, prefix, key string) (*T, bool) {
	tk, err := makeTokenKey(typ, prefix, key)
	if err != nil {
		return nil, false
	}
	v, ok := c.lookupAny(tk)
	if !ok {
		return nil, false
	}
	tv, ok := v.(*T)
	return tv, ok
}

// PutToken writes a token record through the cache. For Put/Update, value
// MUST be the same *T instance previously obtained via ReadToken/LookupToken
// for this key (or a fresh instance for Add); a distinct instance for the
// same key is a CacheMisuse.
func PutToken[T any](c *TokenCache, op PutOp, typ TokenType, prefix, key string, value *T, encode func(*T) []byte) error {
	tk, err := makeTokenKey(typ, prefix, key)
	if err != nil {
		return err
	}
	if existing, ok := c.lookupAny(tk); ok {
		if ev, same := existing.(*T); !same || ev != value {
			return newChainError(ErrCacheMisuse, "distinct instance written for already-resident key", "key", tk.String())
		}
	}
	if err := c.session.PutToken(typ, op, prefix, key, encode(value)); err != nil {
		return err
	}
	delete(c.clean, tk)
	c.dirty[tk] = &cacheEntry{value: value}
	c.hot.Add(tk.String(), value)
	return nil
}

// Rollback drops every entry inserted or mutated during the session; the
// next ReadToken re-reads from the underlying TDB.
func (c *TokenCache) Rollback() {
	for tk := range c.dirty {
		c.hot.Remove(tk.String())
	}
	for ak := range c.dirtyAssets {
		c.hot.Remove(ak.String())
	}
	c.dirty = make(map[tokenKey]*cacheEntry)
	c.clean = make(map[tokenKey]*cacheEntry)
	c.dirtyAssets = make(map[assetKey]*cacheEntry)
	c.cleanAssets = make(map[assetKey]*cacheEntry)
}

func (k assetKey) String() string { return fmt.Sprintf("asset/%s/%d", k.address, k.symID) }

func (c *TokenCache) lookupAnyAsset(ak assetKey) (any, bool) {
	if e, ok := c.dirtyAssets[ak]; ok {
		return e.value, true
	}
	if e, ok := c.cleanAssets[ak]; ok {
		return e.value, true
	}
	return nil, false
}

// ReadAsset decodes (once per session) an Assets-family record, mirroring
// ReadToken's decode-once/single-instance discipline.
func ReadAsset[T any](c *TokenCache, address string, symID uint32, noThrow bool, decode func([]byte) (T, error)) (*T, error) {
	ak := assetKey{address: address, symID: symID}
	if v, ok := c.lookupAnyAsset(ak); ok {
		tv, ok := v.(*T)
		if !ok {
			return nil, newChainError(ErrCacheMisuse, "cached asset value has unexpected type", "key", ak.String())
		}
		return tv, nil
	}
	if v, ok := c.hot.Get(ak.String()); ok {
		if tv, ok := v.(*T); ok {
			c.cleanAssets[ak] = &cacheEntry{value: tv}
			return tv, nil
		}
	}
	raw, err := c.db.ReadAsset(address, symID, noThrow)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	val, err := decode(raw)
	if err != nil {
		return nil, err
	}
	p := &val
	c.cleanAssets[ak] = &cacheEntry{value: p}
	c.hot.Add(ak.String(), p)
	return p, nil
}

// LookupAsset returns the handle only if already resident in the session's
// dirty or clean asset set.
func LookupAsset[T any](c *TokenCache, address string, symID uint32) (*T, bool) {
	ak := assetKey{address: address, symID: symID}
	v, ok := c.lookupAnyAsset(ak)
	if !ok {
		return nil, false
	}
	tv, ok := v.(*T)
	return tv, ok
}

// PutAsset writes an Assets-family record through the cache, under the same
// single-instance-per-key discipline as PutToken.
func PutAsset[T any](c *TokenCache, address string, symID uint32, value *T, encode func(*T) []byte) error {
	ak := assetKey{address: address, symID: symID}
	if existing, ok := c.lookupAnyAsset(ak); ok {
		if ev, same := existing.(*T); !same || ev != value {
			return newChainError(ErrCacheMisuse, "distinct instance written for already-resident asset key", "key", ak.String())
		}
	}
	if err := c.session.PutAsset(address, symID, encode(value)); err != nil {
		return err
	}
	delete(c.cleanAssets, ak)
	c.dirtyAssets[ak] = &cacheEntry{value: value}
	c.hot.Add(ak.String(), value)
	return nil
}
