package database

import (
	"container/list"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

const opTimeout = 5 * time.Second

// DataManagerOptions contains configuration for a DataManager
type DataManagerOptions struct {
	MaxCacheSize int
}

// DefaultDataManagerOptions returns default options for DataManager
func DefaultDataManagerOptions() DataManagerOptions {
	return DataManagerOptions{
		MaxCacheSize: 1000,
	}
}

// lruCache is an LRU of decoded documents keyed by collection and query
type lruCache struct {
	entries map[string]*list.Element
	order   *list.List
	mu      sync.Mutex
}

type cacheEntry struct {
	key   string
	value interface{}
}

func newLRUCache() *lruCache {
	return &lruCache{entries: make(map[string]*list.Element), order: list.New()}
}

func (c *lruCache) get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).value, true
}

func (c *lruCache) put(key string, value interface{}, max int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value = &cacheEntry{key: key, value: value}
		c.order.MoveToFront(elem)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value})

	if max > 0 && c.order.Len() > max {
		if oldest := c.order.Back(); oldest != nil {
			delete(c.entries, oldest.Value.(*cacheEntry).key)
			c.order.Remove(oldest)
		}
	}
}

func (c *lruCache) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.order.Remove(elem)
		delete(c.entries, key)
	}
}

func (c *lruCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// DataManager provides cached access to a collection of T documents.
// Writes made while offline are queued and replayed on reconnect.
type DataManager[T any] struct {
	name    string
	db      *Database
	cache   *lruCache
	options DataManagerOptions
}

// NewDataManager creates a new DataManager for a collection
func NewDataManager[T any](collectionName string, db *Database, opts ...DataManagerOptions) *DataManager[T] {
	dmOptions := DefaultDataManagerOptions()
	if len(opts) > 0 {
		dmOptions = opts[0]
	}

	return &DataManager[T]{
		name:    collectionName,
		db:      db,
		cache:   newLRUCache(),
		options: dmOptions,
	}
}

// generateCacheKey creates a deterministic key from a query
func (dm *DataManager[T]) generateCacheKey(query bson.M) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, query[k]))
	}
	return fmt.Sprintf("%s:{%s}", dm.name, strings.Join(parts, ","))
}

func (dm *DataManager[T]) collection() (*mongo.Collection, error) {
	if !dm.db.Connected() {
		return nil, ErrNotConnected
	}
	col := dm.db.GetCollection(dm.name)
	if col == nil {
		return nil, ErrNotConnected
	}
	return col, nil
}

// Get returns a document from cache or database, nil when absent
func (dm *DataManager[T]) Get(ctx context.Context, query bson.M) (*T, error) {
	key := dm.generateCacheKey(query)
	if v, ok := dm.cache.get(key); ok {
		return v.(*T), nil
	}

	col, err := dm.collection()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var result T
	if err := col.FindOne(ctx, query).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.Warn(fmt.Sprintf("Fallo al leer de la DB (%s)", dm.name), "DataManager")
		return nil, errors.WithStack(err)
	}

	dm.cache.put(key, &result, dm.options.MaxCacheSize)
	return &result, nil
}

// GetAll returns every document matching query, bypassing the cache
func (dm *DataManager[T]) GetAll(ctx context.Context, query bson.M) ([]*T, error) {
	col, err := dm.collection()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*opTimeout)
	defer cancel()

	cursor, err := col.Find(ctx, query)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []*T
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			logger.Warn(fmt.Sprintf("Documento ilegible en '%s': %v", dm.name, err), "DataManager")
			continue
		}
		results = append(results, &doc)
	}
	return results, errors.WithStack(cursor.Err())
}

// Set upserts a document. While offline the write is queued and the cache
// is updated optimistically.
func (dm *DataManager[T]) Set(ctx context.Context, query bson.M, data *T) (*T, error) {
	key := dm.generateCacheKey(query)

	col, err := dm.collection()
	if err != nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando escritura para '%s'", dm.name), "DataManager")
		dm.db.AddToWriteQueue(QueuedOperation{CollectionName: dm.name, Query: query, Operation: "set", Data: data})
		dm.cache.put(key, data, dm.options.MaxCacheSize)
		return data, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result T
	if err := col.FindOneAndUpdate(ctx, query, bson.M{"$set": data}, opts).Decode(&result); err != nil {
		logger.Error(fmt.Sprintf("Error en 'set' sobre '%s'. Encolando por seguridad.", dm.name), "DataManager")
		dm.db.AddToWriteQueue(QueuedOperation{CollectionName: dm.name, Query: query, Operation: "set", Data: data})
		dm.cache.remove(key)
		return nil, errors.WithStack(err)
	}

	dm.cache.put(key, &result, dm.options.MaxCacheSize)
	return &result, nil
}

// Update applies an update operator document to the document matching
// query and cond. It returns nil without error when nothing matched, which
// includes an upsert that collided with an existing document.
func (dm *DataManager[T]) Update(ctx context.Context, query, cond, update bson.M, upsert bool) (*T, error) {
	key := dm.generateCacheKey(query)

	col, err := dm.collection()
	if err != nil {
		return nil, err
	}

	filter := bson.M{}
	for k, v := range query {
		filter[k] = v
	}
	for k, v := range cond {
		filter[k] = v
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(upsert).
		SetReturnDocument(options.After)

	var result T
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments), mongo.IsDuplicateKeyError(err):
		return nil, nil
	case err != nil:
		dm.cache.remove(key)
		return nil, errors.WithStack(err)
	}

	dm.cache.put(key, &result, dm.options.MaxCacheSize)
	return &result, nil
}

// Delete removes a document from the database and cache
func (dm *DataManager[T]) Delete(ctx context.Context, query bson.M) error {
	dm.cache.remove(dm.generateCacheKey(query))

	col, err := dm.collection()
	if err != nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando eliminación para '%s'", dm.name), "DataManager")
		dm.db.AddToWriteQueue(QueuedOperation{CollectionName: dm.name, Query: query, Operation: "delete"})
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := col.DeleteOne(ctx, query); err != nil {
		logger.Error(fmt.Sprintf("Error en 'delete' sobre '%s'. Encolando por seguridad.", dm.name), "DataManager")
		dm.db.AddToWriteQueue(QueuedOperation{CollectionName: dm.name, Query: query, Operation: "delete"})
		return errors.WithStack(err)
	}
	return nil
}

// ClearCache empties the cache
func (dm *DataManager[T]) ClearCache() {
	dm.cache.clear()
}

// CacheSize returns the number of cached documents
func (dm *DataManager[T]) CacheSize() int {
	return dm.cache.len()
}
