// Package k8sclient wraps typed and dynamic Kubernetes access:
// list/watch/patch/delete plus a resource-discovery cache with a 60-second
// TTL keyed by (group, version, kind).
package k8sclient

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/restmapper"
)

const discoveryTTL = 60 * time.Second
const discoveryCacheSize = 256

type discoveryCacheEntry struct {
	mapping   *meta.RESTMapping
	fetchedAt time.Time
}

// DiscoveryCache resolves a GroupVersionKind to its REST mapping, caching
// entries for 60 seconds. It is shared process-wide: reads may come from any
// worker, refills are atomic per key under the mutex. Bounding it with an
// LRU (rather than an unbounded map) keeps memory flat on clusters with a
// large, churning set of CRDs.
type DiscoveryCache struct {
	mu     sync.Mutex
	cache  *lru.Cache[schema.GroupVersionKind, discoveryCacheEntry]
	mapper *restmapper.DeferredDiscoveryRESTMapper
}

// NewDiscoveryCache builds a cache backed by a deferred discovery REST
// mapper, which itself amortizes repeated discovery calls within a single
// mapper instance; this cache additionally enforces the explicit 60s TTL
// and bounds total entries via LRU eviction.
func NewDiscoveryCache(client discovery.DiscoveryInterface) (*DiscoveryCache, error) {
	cache, err := lru.New[schema.GroupVersionKind, discoveryCacheEntry](discoveryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating discovery LRU cache: %w", err)
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(client))
	return &DiscoveryCache{cache: cache, mapper: mapper}, nil
}

// RESTMapping resolves a GVK to its REST mapping, refreshing the mapper and
// refilling the LRU when the cached entry has exceeded the 60-second TTL or
// is entirely absent. Cache refill for a given key is serialized by mu so
// concurrent workers never race on the same mapper reset.
func (d *DiscoveryCache) RESTMapping(gvk schema.GroupVersionKind) (*meta.RESTMapping, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.cache.Get(gvk); ok && time.Since(entry.fetchedAt) < discoveryTTL {
		return entry.mapping, nil
	}

	mapping, err := d.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		d.mapper.Reset()
		mapping, err = d.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
		if err != nil {
			return nil, fmt.Errorf("resolving REST mapping for %s: %w", gvk, err)
		}
	}

	d.cache.Add(gvk, discoveryCacheEntry{mapping: mapping, fetchedAt: time.Now()})
	return mapping, nil
}

// ResourceFor resolves a partially-specified GroupVersionResource (version
// may be empty) to its fully-qualified form, the same discovery machinery
// RESTMapping uses. Used by the EXTRA_CHILD_RESOURCES watch set to turn a
// config-supplied {name, group} pair into a concrete resource the dynamic
// informer factory can watch.
func (d *DiscoveryCache) ResourceFor(input schema.GroupVersionResource) (schema.GroupVersionResource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	gvr, err := d.mapper.ResourceFor(input)
	if err != nil {
		return schema.GroupVersionResource{}, fmt.Errorf("resolving resource for %s: %w", input, err)
	}
	return gvr, nil
}

// KindFor resolves a GroupVersionResource to its Kind, used to populate the
// ChildResourceStatus.Kind/APIVersion fields for extra child resources,
// which (unlike the six built-in kinds) have no compile-time known GVK.
func (d *DiscoveryCache) KindFor(input schema.GroupVersionResource) (schema.GroupVersionKind, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	gvk, err := d.mapper.KindFor(input)
	if err != nil {
		return schema.GroupVersionKind{}, fmt.Errorf("resolving kind for %s: %w", input, err)
	}
	return gvk, nil
}
