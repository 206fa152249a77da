package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"tempocache/application/cacheaside"
	"tempocache/application/invalidation"
	"tempocache/application/ports"
	"tempocache/application/warmup"
	"tempocache/application/writebehind"
	"tempocache/application/writethrough"
	"tempocache/domain/catalog"
	"tempocache/infrastructure/badgerdb"
	"tempocache/infrastructure/config"
	"tempocache/infrastructure/dynamodb"
	"tempocache/infrastructure/memorystore"
	"tempocache/infrastructure/resilience"
	"tempocache/pkg/observability"
	"tempocache/pkg/ratelimit"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Collector

	CatalogDB *badgerdb.DB

	ArtistReader *cacheaside.Coordinator[string, catalog.Artist]
	AlbumReader  *cacheaside.Coordinator[string, catalog.Album]

	ArtistWriter *writethrough.Coordinator[string, catalog.Artist]
	AlbumWriter  *writethrough.Coordinator[string, catalog.Album]

	ListenRecorder *writebehind.Coordinator[string, catalog.ListenEvent]
	Flusher        *writebehind.Flusher[string, catalog.ListenEvent]

	Invalidator *invalidation.Invalidator[string]
	Warmer      *warmup.Warmer

	IngestLimiter *ratelimit.TokenBucket
}

// CacheTier bundles a cache store with the transaction runner that stages
// writes into the same backing store.
type CacheTier[V any] struct {
	Store  ports.KeyedStore[string, V]
	Runner ports.TransactionRunner[string, V]
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideMetrics creates the metric collector backing /metrics
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("tempocache")
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideCatalogDB opens the Badger database acting as the system of record
func ProvideCatalogDB(cfg *config.Config, logger *zap.Logger) (*badgerdb.DB, error) {
	return badgerdb.Open(cfg.BadgerPath, cfg.BadgerInMemory, logger)
}

// buildCacheTier picks the cache backend from configuration. Store and
// runner always share one backing store so staged writes land where reads
// look.
func buildCacheTier[V any](cfg *config.Config, client *awsdynamodb.Client) CacheTier[V] {
	if cfg.CacheBackend == config.BackendDynamoDB {
		store := dynamodb.NewStore[V](client, cfg.DynamoDBTable, cfg.CacheKeyspace)
		return CacheTier[V]{Store: store, Runner: dynamodb.NewRunner(store)}
	}
	store := memorystore.New[string, V]()
	return CacheTier[V]{Store: store, Runner: memorystore.NewRunner(store)}
}

// ProvideArtistCache creates the artist cache tier
func ProvideArtistCache(cfg *config.Config, client *awsdynamodb.Client) CacheTier[catalog.Artist] {
	return buildCacheTier[catalog.Artist](cfg, client)
}

// ProvideAlbumCache creates the album cache tier
func ProvideAlbumCache(cfg *config.Config, client *awsdynamodb.Client) CacheTier[catalog.Album] {
	return buildCacheTier[catalog.Album](cfg, client)
}

// ProvideListenBuffer creates the write-behind buffer for listen events
func ProvideListenBuffer(cfg *config.Config, client *awsdynamodb.Client) ports.KeyedStore[string, writebehind.PendingWrite[catalog.ListenEvent]] {
	return buildCacheTier[writebehind.PendingWrite[catalog.ListenEvent]](cfg, client).Store
}

// wrapBreaker guards a system of record with a circuit breaker when enabled.
func wrapBreaker[V any](name string, system ports.ExternalSystem[string, V], cfg *config.Config, logger *zap.Logger) ports.ExternalSystem[string, V] {
	if !cfg.BreakerEnabled {
		return system
	}
	return resilience.Wrap(system, resilience.DefaultConfig(name), logger)
}

// ProvideArtistSystem creates the artist view of the catalog database
func ProvideArtistSystem(db *badgerdb.DB, cfg *config.Config, logger *zap.Logger) ports.ExternalSystem[string, catalog.Artist] {
	system := badgerdb.NewSystem(db, catalog.KindPrefix(catalog.KindArtist), func(a catalog.Artist) int {
		return a.Popularity
	})
	return wrapBreaker("artist-catalog", system, cfg, logger)
}

// ProvideAlbumSystem creates the album view of the catalog database.
// Albums rank by release year, so warm-up preloads the newest ones.
func ProvideAlbumSystem(db *badgerdb.DB, cfg *config.Config, logger *zap.Logger) ports.ExternalSystem[string, catalog.Album] {
	system := badgerdb.NewSystem(db, catalog.KindPrefix(catalog.KindAlbum), func(a catalog.Album) int {
		return a.Year
	})
	return wrapBreaker("album-catalog", system, cfg, logger)
}

// ProvideListenSystem creates the listen-event view of the catalog database
func ProvideListenSystem(db *badgerdb.DB, cfg *config.Config, logger *zap.Logger) ports.ExternalSystem[string, catalog.ListenEvent] {
	system := badgerdb.NewSystem[catalog.ListenEvent](db, catalog.KindPrefix(catalog.KindListen), nil)
	return wrapBreaker("listen-catalog", system, cfg, logger)
}

// ProvideArtistReader creates the cache-aside read path for artists
func ProvideArtistReader(tier CacheTier[catalog.Artist], system ports.ExternalSystem[string, catalog.Artist], logger *zap.Logger, metrics *observability.Collector) *cacheaside.Coordinator[string, catalog.Artist] {
	return cacheaside.New(catalog.KindArtist, tier.Store, system, logger, metrics)
}

// ProvideAlbumReader creates the cache-aside read path for albums
func ProvideAlbumReader(tier CacheTier[catalog.Album], system ports.ExternalSystem[string, catalog.Album], logger *zap.Logger, metrics *observability.Collector) *cacheaside.Coordinator[string, catalog.Album] {
	return cacheaside.New(catalog.KindAlbum, tier.Store, system, logger, metrics)
}

// ProvideArtistWriter creates the write-through write path for artists
func ProvideArtistWriter(tier CacheTier[catalog.Artist], system ports.ExternalSystem[string, catalog.Artist], logger *zap.Logger) *writethrough.Coordinator[string, catalog.Artist] {
	return writethrough.New(catalog.KindArtist, tier.Runner, system, logger)
}

// ProvideAlbumWriter creates the write-through write path for albums
func ProvideAlbumWriter(tier CacheTier[catalog.Album], system ports.ExternalSystem[string, catalog.Album], logger *zap.Logger) *writethrough.Coordinator[string, catalog.Album] {
	return writethrough.New(catalog.KindAlbum, tier.Runner, system, logger)
}

// ProvideListenRecorder creates the write-behind path for listen events
func ProvideListenRecorder(
	buffer ports.KeyedStore[string, writebehind.PendingWrite[catalog.ListenEvent]],
	system ports.ExternalSystem[string, catalog.ListenEvent],
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Collector,
) *writebehind.Coordinator[string, catalog.ListenEvent] {
	return writebehind.New(catalog.KindListen, buffer, system, catalog.ListenEvent.Key, cfg.FlushBatchSize, logger, metrics)
}

// ProvideFlusher creates the background flusher draining the listen buffer
func ProvideFlusher(recorder *writebehind.Coordinator[string, catalog.ListenEvent], cfg *config.Config, logger *zap.Logger) *writebehind.Flusher[string, catalog.ListenEvent] {
	return writebehind.NewFlusher(recorder, cfg.FlushInterval, logger)
}

// ProvideInvalidator creates the invalidator spanning every cache tier
func ProvideInvalidator(
	artists CacheTier[catalog.Artist],
	albums CacheTier[catalog.Album],
	db *badgerdb.DB,
	logger *zap.Logger,
	metrics *observability.Collector,
) *invalidation.Invalidator[string] {
	store := invalidation.MultiRemover[string]{artists.Store, albums.Store}
	resolver := badgerdb.NewPrefixResolver(db, catalog.DependentKeyPrefix)
	return invalidation.New[string](store, resolver, catalog.StatsKeysFor, logger, metrics)
}

// ProvideIngestLimiter creates the per-client limiter on listen ingestion,
// or nil when rate limiting is disabled
func ProvideIngestLimiter(cfg *config.Config) *ratelimit.TokenBucket {
	if !cfg.RateLimitEnabled {
		return nil
	}
	return ratelimit.NewTokenBucket(cfg.IngestRateBurst, cfg.IngestRateRefill)
}

// ProvideWarmer creates the cache warmer with one task per preloaded kind
func ProvideWarmer(
	cfg *config.Config,
	artists CacheTier[catalog.Artist],
	artistSystem ports.ExternalSystem[string, catalog.Artist],
	albums CacheTier[catalog.Album],
	albumSystem ports.ExternalSystem[string, catalog.Album],
	logger *zap.Logger,
	metrics *observability.Collector,
) *warmup.Warmer {
	tasks := []warmup.Task{
		warmup.NewTask("popular-artists", cfg.WarmupTopK, artistSystem, artists.Store),
		warmup.NewTask("recent-albums", cfg.WarmupTopK, albumSystem, albums.Store),
	}
	return warmup.New(tasks, logger, metrics)
}
