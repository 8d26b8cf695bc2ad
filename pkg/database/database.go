// Package database provides the MongoDB connection and the moderation
// stores built on it: the case ledger, the warn-point records and the
// cached guild settings.
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"emperror.dev/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// Collection names
const (
	CasesCollection    = "cases"
	CountersCollection = "case_counters"
	UsersCollection    = "moderation_users"
	GuildsCollection   = "guild_settings"
)

const (
	connectTimeout    = 5 * time.Second
	reconnectInterval = 15 * time.Second
)

// ErrNotConnected is returned while the database is offline
const ErrNotConnected = errors.Sentinel("not connected to database")

// QueuedOperation represents a pending database write
type QueuedOperation struct {
	CollectionName string
	Query          bson.M
	Operation      string // "set" or "delete"
	Data           interface{}
}

// Database manages the MongoDB connection
type Database struct {
	client      *mongo.Client
	db          *mongo.Database
	isConnected bool
	writeQueue  []QueuedOperation
	reconnect   *time.Ticker
	stop        chan struct{}
	mu          sync.RWMutex
	queueMu     sync.Mutex
	collections map[string]*mongo.Collection
}

var (
	database *Database
	dbOnce   sync.Once
)

// Init initializes the global database instance
func Init(ctx context.Context, mongoURL, dbName string) (*Database, error) {
	var err error
	dbOnce.Do(func() {
		database = NewDatabase()
		err = database.Connect(ctx, mongoURL, dbName)
	})
	return database, err
}

// Get returns the global database instance
func Get() *Database {
	return database
}

// NewDatabase creates a disconnected Database
func NewDatabase() *Database {
	return &Database{
		writeQueue:  make([]QueuedOperation, 0),
		stop:        make(chan struct{}),
		collections: make(map[string]*mongo.Collection),
	}
}

// FromMongo wraps an already connected database handle
func FromMongo(db *mongo.Database) *Database {
	d := NewDatabase()
	d.client = db.Client()
	d.db = db
	d.isConnected = true
	return d
}

// Connect establishes the connection. On failure it keeps retrying in the
// background and the bot runs in offline mode meanwhile.
func (d *Database) Connect(ctx context.Context, mongoURL, dbName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isConnected {
		return nil
	}

	logger.System("Intentando conectar a la base de datos...", "DB")

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(mongoURL).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err == nil {
		err = client.Ping(ctx, readpref.Primary())
	}
	if err != nil {
		logger.Critical("Fallo al conectar con la base de datos.", "DB")
		d.scheduleReconnect(mongoURL, dbName)
		return errors.WrapIfWithDetails(err, "connect to mongo", "db", dbName)
	}

	d.client = client
	d.db = client.Database(dbName)
	d.collections = make(map[string]*mongo.Collection)
	d.isConnected = true

	logger.Success("Conectado exitosamente a la base de datos.", "DB")

	if d.reconnect != nil {
		d.reconnect.Stop()
		d.reconnect = nil
	}

	go d.syncOfflineWrites()
	return nil
}

// scheduleReconnect must be called with mu held
func (d *Database) scheduleReconnect(mongoURL, dbName string) {
	d.isConnected = false
	if d.reconnect != nil {
		return
	}
	logger.Warn("Base de datos no disponible. Activando modo offline.", "DB")

	d.reconnect = time.NewTicker(reconnectInterval)
	ticker := d.reconnect
	go func() {
		for {
			select {
			case <-ticker.C:
				logger.Info("Intentando reconectar a la base de datos...", "DB")
				if err := d.Connect(context.Background(), mongoURL, dbName); err == nil {
					return
				}
			case <-d.stop:
				return
			}
		}
	}()
}

// Connected reports whether the database is reachable
func (d *Database) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.isConnected
}

// Disconnect closes the database connection
func (d *Database) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reconnect != nil {
		d.reconnect.Stop()
		d.reconnect = nil
	}
	select {
	case <-d.stop:
	default:
		close(d.stop)
	}

	if d.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := d.client.Disconnect(ctx); err != nil {
		return errors.WithStack(err)
	}
	d.isConnected = false
	logger.Warn("La base de datos ha sido desconectada", "DB")
	return nil
}

// Ping measures the database response time
func (d *Database) Ping(ctx context.Context) (time.Duration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.isConnected || d.client == nil {
		return 0, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	start := time.Now()
	err := d.client.Ping(ctx, readpref.Primary())
	return time.Since(start), errors.WithStack(err)
}

// GetStatus returns a display string of the connection status
func (d *Database) GetStatus(ctx context.Context) (string, bool) {
	if _, err := d.Ping(ctx); err != nil {
		return "🔴 | Desconectado", false
	}
	return "🟢 | En linea", true
}

// GetCollection returns a MongoDB collection, nil while never connected
func (d *Database) GetCollection(name string) *mongo.Collection {
	d.mu.RLock()
	if col, exists := d.collections[name]; exists {
		d.mu.RUnlock()
		return col
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}

	col := d.db.Collection(name)
	d.collections[name] = col
	return col
}

// EnsureIndexes creates the indexes the stores rely on for uniqueness
func (d *Database) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CasesCollection: {
			{Keys: bson.D{{Key: "guildId", Value: 1}, {Key: "caseId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "guildId", Value: 1}, {Key: "userId", Value: 1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "guildId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "isMuted", Value: 1}}},
		},
		GuildsCollection: {
			{Keys: bson.D{{Key: "guildId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for name, idx := range indexes {
		col := d.GetCollection(name)
		if col == nil {
			return ErrNotConnected
		}
		if _, err := col.Indexes().CreateMany(ctx, idx); err != nil {
			return errors.WrapIfWithDetails(err, "create indexes", "collection", name)
		}
	}
	return nil
}

// AddToWriteQueue adds an operation to the offline write queue
func (d *Database) AddToWriteQueue(op QueuedOperation) {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	d.writeQueue = append(d.writeQueue, op)
}

// QueueLen returns the number of writes waiting for the database
func (d *Database) QueueLen() int {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	return len(d.writeQueue)
}

// syncOfflineWrites replays queued operations once connected
func (d *Database) syncOfflineWrites() {
	d.queueMu.Lock()
	if len(d.writeQueue) == 0 {
		d.queueMu.Unlock()
		return
	}

	logger.System(fmt.Sprintf("Sincronizando %d operaciones pendientes con la DB...", len(d.writeQueue)), "DB-Sync")

	operations := d.writeQueue
	d.writeQueue = make([]QueuedOperation, 0)
	d.queueMu.Unlock()

	var failed []QueuedOperation
	for _, op := range operations {
		col := d.GetCollection(op.CollectionName)
		if col == nil {
			failed = append(failed, op)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		var err error
		switch op.Operation {
		case "set":
			_, err = col.UpdateOne(ctx, op.Query, bson.M{"$set": op.Data}, options.Update().SetUpsert(true))
		case "delete":
			_, err = col.DeleteOne(ctx, op.Query)
		}
		cancel()

		if err != nil {
			logger.Error(fmt.Sprintf("Error al sincronizar operación para '%s'. Se volverá a encolar.", op.CollectionName), "DB-Sync")
			failed = append(failed, op)
		}
	}

	if len(failed) > 0 {
		d.queueMu.Lock()
		d.writeQueue = append(d.writeQueue, failed...)
		d.queueMu.Unlock()
		logger.Warn(fmt.Sprintf("%d operaciones no pudieron sincronizarse y se reintentarán.", len(failed)), "DB-Sync")
		return
	}
	logger.Success("Sincronización completada exitosamente.", "DB-Sync")
}

// Client returns the underlying MongoDB client
func (d *Database) Client() *mongo.Client {
	return d.client
}

// DB returns the underlying MongoDB database
func (d *Database) DB() *mongo.Database {
	return d.db
}
