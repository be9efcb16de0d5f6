// Package cache is a small in-memory TTL cache used for correspondence type
// catalogs, email template lists and dialog defaults, which are stable per
// key and expensive to re-fetch on every field change.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	data      interface{}
	expiresAt time.Time
}

// Cache represents a simple in-memory cache
type Cache struct {
	items map[string]entry
	mutex sync.RWMutex
}

// New creates a new cache instance
func New() *Cache {
	return &Cache{
		items: make(map[string]entry),
	}
}

// Get retrieves an item from the cache. Expired items are treated as misses
// and dropped.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	item, exists := c.items[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		c.mutex.Lock()
		// re-check: another writer may have refreshed the key meanwhile
		if current, ok := c.items[key]; ok && time.Now().After(current.expiresAt) {
			delete(c.items, key)
		}
		c.mutex.Unlock()
		return nil, false
	}

	return item.data, true
}

// Set stores an item in the cache with TTL
func (c *Cache) Set(key string, data interface{}, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = entry{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]entry)
}

// CatalogKey keys the correspondence type catalog of one company code.
func CatalogKey(companyCode string) string {
	return "catalog:" + companyCode
}

// TemplatesKey keys the email template list of one correspondence type.
func TemplatesKey(typeKey string) string {
	return "templates:" + typeKey
}

// DefaultsKey keys the dialog defaults of one account.
func DefaultsKey(companyCode, accountType, accountNumber string) string {
	return "defaults:" + companyCode + ":" + accountType + ":" + accountNumber
}
