package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"music-gateway-go/utils"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "cache"

// Cache is a namespaced key-value store with per-entry TTL. Reads are
// served from an in-memory sync.Map; BoltDB persists entries across
// restarts. A read after expiry is a miss; writes always set a fresh
// expiry from the write instant.
type Cache struct {
	db                 *bolt.DB
	memCache           sync.Map
	dbPath             string
	backupPath         string
	compressionEnabled bool
}

// Entry represents a cached value (possibly compressed) and its expiry.
type Entry struct {
	Value      string `json:"value"`
	Expiration int64  `json:"expiration"` // unix nanoseconds
}

// Expired reports whether the entry's TTL has elapsed.
func (e Entry) Expired() bool {
	return time.Now().UnixNano() > e.Expiration
}

// New creates a cache backed by a BoltDB file at dbPath.
func New(dbPath string, backupPath string, compressionEnabled bool) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %v", err)
	}
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %v", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %v", err)
	}

	c := &Cache{
		db:                 db,
		dbPath:             dbPath,
		backupPath:         backupPath,
		compressionEnabled: compressionEnabled,
	}

	if err := c.loadToMemory(); err != nil {
		log.Warnf("[Cache] Failed to preload cache to memory: %v", err)
	}

	log.Infof("[Cache] Cache initialized at %s (compression: %v)", dbPath, compressionEnabled)
	return c, nil
}

// loadToMemory loads all live cache entries from disk to memory.
// Entries that expired while the process was down are dropped.
func (c *Cache) loadToMemory() error {
	count := 0
	skipped := 0
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warnf("[Cache] Failed to unmarshal cache entry for key %s: %v", string(k), err)
				return nil // Continue to next entry
			}
			if entry.Expired() {
				skipped++
				return nil
			}
			c.memCache.Store(string(k), entry)
			count++
			return nil
		})
	})

	if err != nil {
		return err
	}

	log.Infof("[Cache] Loaded %d entries from disk to memory (%d expired)", count, skipped)
	return nil
}

// Get retrieves a value from cache. An expired entry counts as a miss
// and is removed.
func (c *Cache) Get(key string) (string, bool) {
	if v, ok := c.memCache.Load(key); ok {
		entry := v.(Entry)
		if entry.Expired() {
			c.Delete(key)
			return "", false
		}
		return c.decode(key, entry.Value)
	}

	// Fall through to disk in case the entry was evicted from memory
	var entry Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("key not found")
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return "", false
	}

	if entry.Expired() {
		c.Delete(key)
		return "", false
	}

	c.memCache.Store(key, entry)
	return c.decode(key, entry.Value)
}

func (c *Cache) decode(key, value string) (string, bool) {
	if !c.compressionEnabled {
		return value, true
	}
	decompressed, err := utils.DecompressString(value)
	if err != nil {
		log.Errorf("[Cache] Error decompressing cache value for key %s: %v", key, err)
		return "", false
	}
	return decompressed, true
}

// Set stores a value with the given TTL in both memory and disk.
func (c *Cache) Set(key, value string, ttl time.Duration) error {
	finalValue := value
	if c.compressionEnabled {
		compressed, err := utils.CompressString(value)
		if err != nil {
			log.Errorf("[Cache] Error compressing cache value for key %s: %v", key, err)
			return err
		}
		finalValue = compressed
	}

	entry := Entry{
		Value:      finalValue,
		Expiration: time.Now().Add(ttl).UnixNano(),
	}

	c.memCache.Store(key, entry)

	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		return b.Put([]byte(key), data)
	})
}

// Delete removes a key from cache.
func (c *Cache) Delete(key string) error {
	c.memCache.Delete(key)

	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Delete([]byte(key))
	})
}

// Clear removes all entries from cache.
func (c *Cache) Clear() error {
	c.memCache.Range(func(key, value interface{}) bool {
		c.memCache.Delete(key)
		return true
	})

	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Sweep removes all expired entries. Returns the number deleted.
func (c *Cache) Sweep() int {
	deleted := 0
	c.memCache.Range(func(key, value interface{}) bool {
		entry := value.(Entry)
		if entry.Expired() {
			c.Delete(key.(string))
			deleted++
		}
		return true
	})
	return deleted
}

// Janitor periodically sweeps expired entries. Run it in a goroutine.
func (c *Cache) Janitor(interval time.Duration) {
	log.Infof("[Cache] Starting janitor (interval: %v)", interval)
	for {
		time.Sleep(interval)
		if n := c.Sweep(); n > 0 {
			log.Infof("[Cache] Janitor deleted %d expired entries", n)
		}
	}
}

// Range iterates over all cache entries, including expired ones not yet
// swept.
func (c *Cache) Range(fn func(key string, entry Entry) bool) {
	c.memCache.Range(func(k, v interface{}) bool {
		return fn(k.(string), v.(Entry))
	})
}

// Stats returns cache statistics.
func (c *Cache) Stats() (numKeys int, sizeInKB int) {
	c.memCache.Range(func(k, v interface{}) bool {
		entry := v.(Entry)
		numKeys++
		sizeInKB += len(k.(string)) + len(entry.Value)
		return true
	})
	sizeInKB = sizeInKB / 1024
	return
}

// Backup creates a backup of the cache database file.
// Returns the backup file path.
func (c *Cache) Backup() (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	backupFileName := fmt.Sprintf("cache_backup_%s.db", timestamp)
	backupFilePath := filepath.Join(c.backupPath, backupFileName)

	log.Infof("[Cache:Backup] Creating backup at: %s", backupFilePath)

	// Close the database temporarily to ensure all data is flushed
	if err := c.db.Close(); err != nil {
		return "", fmt.Errorf("failed to close database for backup: %v", err)
	}

	if err := copyFile(c.dbPath, backupFilePath); err != nil {
		c.reopenDatabase()
		return "", fmt.Errorf("failed to copy database file: %v", err)
	}

	if err := c.reopenDatabase(); err != nil {
		return "", fmt.Errorf("failed to reopen database after backup: %v", err)
	}

	log.Infof("[Cache:Backup] Backup created successfully: %s", backupFilePath)
	return backupFilePath, nil
}

// reopenDatabase reopens the database connection and reloads memory.
func (c *Cache) reopenDatabase() error {
	db, err := bolt.Open(c.dbPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to reopen database: %v", err)
	}
	c.db = db

	if err := c.loadToMemory(); err != nil {
		log.Warnf("[Cache] Failed to reload cache to memory: %v", err)
	}

	return nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return err
	}

	return destFile.Sync()
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// BackupInfo contains metadata about a backup file.
type BackupInfo struct {
	FileName  string    `json:"fileName"`
	FilePath  string    `json:"filePath"`
	Size      int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListBackups returns a list of all available backup files.
func (c *Cache) ListBackups() ([]BackupInfo, error) {
	var backups []BackupInfo

	entries, err := os.ReadDir(c.backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return backups, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".db" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Warnf("[Cache:Backup] Failed to get info for %s: %v", entry.Name(), err)
			continue
		}

		backups = append(backups, BackupInfo{
			FileName:  entry.Name(),
			FilePath:  filepath.Join(c.backupPath, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	return backups, nil
}

// RestoreFromBackup replaces the current cache database with a backup.
func (c *Cache) RestoreFromBackup(backupFileName string) error {
	backupFilePath := filepath.Join(c.backupPath, backupFileName)

	if filepath.Ext(backupFileName) != ".db" {
		return fmt.Errorf("invalid backup file: must be a .db file")
	}
	if _, err := os.Stat(backupFilePath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupFileName)
	}

	log.Infof("[Cache:Restore] Starting restore from backup: %s", backupFileName)

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close current database: %v", err)
	}

	// Keep a safety copy of the current database until the restore succeeds
	currentBackupPath := c.dbPath + ".pre-restore"
	if err := copyFile(c.dbPath, currentBackupPath); err != nil {
		c.reopenDatabase()
		return fmt.Errorf("failed to backup current database: %v", err)
	}

	if err := copyFile(backupFilePath, c.dbPath); err != nil {
		copyFile(currentBackupPath, c.dbPath)
		c.reopenDatabase()
		return fmt.Errorf("failed to restore backup: %v", err)
	}

	os.Remove(currentBackupPath)

	if err := c.reopenDatabase(); err != nil {
		return fmt.Errorf("failed to reopen database after restore: %v", err)
	}

	log.Infof("[Cache:Restore] Successfully restored from backup: %s", backupFileName)
	return nil
}
