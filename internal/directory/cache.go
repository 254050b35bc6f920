// Package directory caches user id to email resolution for the lifetime of a
// session. Entries are never evicted.
package directory

import (
	"context"
	"fmt"
	"sync"

	"chatsync/internal/common"
)

type Cache struct {
	users common.UserDirectory

	mu     sync.RWMutex
	emails map[string]string
}

func NewCache(users common.UserDirectory) *Cache {
	return &Cache{
		users:  users,
		emails: make(map[string]string),
	}
}

// Lookup returns a cached email without touching the directory.
func (c *Cache) Lookup(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	email, ok := c.emails[id]
	return email, ok
}

// Resolve returns the email for id, loading and caching it on a miss.
func (c *Cache) Resolve(ctx context.Context, id string) (string, error) {
	if email, ok := c.Lookup(id); ok {
		return email, nil
	}
	user, err := c.users.UserByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve user %s: %w", id, err)
	}
	c.Remember(user.ID, user.Email)
	return user.Email, nil
}

// ResolveMany loads every uncached id in one batched lookup and returns the
// emails it knows. Ids missing from the directory are absent from the result.
func (c *Cache) ResolveMany(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	var missing []string

	c.mu.RLock()
	for _, id := range ids {
		if email, ok := c.emails[id]; ok {
			out[id] = email
		} else {
			missing = append(missing, id)
		}
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return out, nil
	}
	users, err := c.users.UsersByIDs(ctx, missing)
	if err != nil {
		return out, fmt.Errorf("resolve %d users: %w", len(missing), err)
	}
	c.RememberUsers(users)
	for _, u := range users {
		out[u.ID] = u.Email
	}
	return out, nil
}

func (c *Cache) Remember(id, email string) {
	if id == "" || email == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emails[id] = email
}

func (c *Cache) RememberUsers(users []common.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range users {
		if u.ID != "" && u.Email != "" {
			c.emails[u.ID] = u.Email
		}
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.emails)
}
