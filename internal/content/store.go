package content

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/logger"
)

const (
	DomainPosts       = "posts"
	DomainComments    = "comments"
	DomainUsers       = "users"
	DomainInbox       = "inbox"
	DomainCommunities = "communities"
)

// Store is the set of content caches whose items belong to the identity
// that fetched them.
type Store struct {
	Posts       *Cache[domain.Post]
	Comments    *Cache[domain.Comment]
	Users       *Cache[domain.PersonDetails]
	Inbox       *Cache[domain.InboxItem]
	Communities *Cache[domain.Community]
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		Posts:       NewCache[domain.Post](DomainPosts, ttl),
		Comments:    NewCache[domain.Comment](DomainComments, ttl),
		Users:       NewCache[domain.PersonDetails](DomainUsers, ttl),
		Inbox:       NewCache[domain.InboxItem](DomainInbox, ttl),
		Communities: NewCache[domain.Community](DomainCommunities, ttl),
	}
}

func (s *Store) Resetters() []domain.Resetter {
	return []domain.Resetter{s.Posts, s.Comments, s.Users, s.Inbox, s.Communities}
}

// PutInbox caches items keyed by kind and id, since ids are only unique
// per kind.
func (s *Store) PutInbox(items []domain.InboxItem) {
	for _, item := range items {
		s.Inbox.Put(fmt.Sprintf("%s:%d", item.Kind, item.ID), item)
	}
}

// PutPersonDetails caches a profile and the posts and comments on it.
func (s *Store) PutPersonDetails(username string, details *domain.PersonDetails) {
	s.Users.Put(username, *details)
	for _, p := range details.Posts {
		s.Posts.Put(strconv.Itoa(p.ID), p)
	}
	for _, c := range details.Comments {
		s.Comments.Put(strconv.Itoa(c.ID), c)
	}
}

func (s *Store) PutSite(site *domain.Site) {
	for _, c := range site.Follows {
		s.Communities.Put(strconv.Itoa(c.ID), c)
	}
}

// Registry fans a reset out to every registered content domain.
type Registry struct {
	mu        sync.RWMutex
	resetters []domain.Resetter
}

func NewRegistry(resetters ...domain.Resetter) *Registry {
	return &Registry{resetters: resetters}
}

func (r *Registry) Register(resetter domain.Resetter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetters = append(r.resetters, resetter)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.resetters))
	for _, rs := range r.resetters {
		names = append(names, rs.Name())
	}
	return names
}

// ResetAll resets every domain concurrently and returns once all of them
// have finished. The first error is returned.
func (r *Registry) ResetAll(ctx context.Context) error {
	r.mu.RLock()
	resetters := append([]domain.Resetter(nil), r.resetters...)
	r.mu.RUnlock()

	// A failing domain must not cancel the others.
	var g errgroup.Group
	for _, rs := range resetters {
		g.Go(func() error {
			if err := rs.Reset(ctx); err != nil {
				logger.LogError("RESET", rs.Name(), err)
				return fmt.Errorf("reset %s: %w", rs.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Log("Reset %d content domains", len(resetters))
	return nil
}
