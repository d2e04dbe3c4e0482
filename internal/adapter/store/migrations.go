package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"searchfox/config"
)

// CurrentSchemaVersion is the on-disk format version of the file cache.
// Increment this when changing fileEntry.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion = []byte("schema_version")
	keyConfigHash    = []byte("config_hash")
)

type SchemaInfo struct {
	Version    int    `json:"version"`
	ConfigHash string `json:"config_hash"`
}

func (c *FileCache) GetSchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if data := b.Get(keySchemaVersion); data != nil {
			if err := json.Unmarshal(data, &info.Version); err != nil {
				info.Version = 0
			}
		}
		if data := b.Get(keyConfigHash); data != nil {
			info.ConfigHash = string(data)
		}
		return nil
	})
	return &info, err
}

func (c *FileCache) SetSchemaInfo(info *SchemaInfo) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		data, err := json.Marshal(info.Version)
		if err != nil {
			return err
		}
		if err := b.Put(keySchemaVersion, data); err != nil {
			return err
		}
		return b.Put(keyConfigHash, []byte(info.ConfigHash))
	})
}

// ComputeConfigHash hashes the settings that decide where file text comes
// from. Cached files are stale once this changes.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		BaseURL    string `json:"base_url"`
		RawBaseURL string `json:"raw_base_url"`
	}{
		BaseURL:    cfg.Client.BaseURL,
		RawBaseURL: cfg.Client.RawBaseURL,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// CheckResult describes whether cached contents can be reused.
type CheckResult struct {
	NeedsClear bool
	OldVersion int
	NewVersion int
	Reason     string
}

func (c *FileCache) Check(cfg *config.Config) (*CheckResult, error) {
	info, err := c.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema info: %w", err)
	}

	result := &CheckResult{OldVersion: info.Version, NewVersion: CurrentSchemaVersion}
	switch {
	case info.Version == 0:
		result.Reason = "initializing schema version"
	case info.Version != CurrentSchemaVersion:
		result.NeedsClear = true
		result.Reason = fmt.Sprintf("cache format changed (v%d -> v%d)", info.Version, CurrentSchemaVersion)
	case info.ConfigHash != "" && info.ConfigHash != ComputeConfigHash(cfg):
		result.NeedsClear = true
		result.Reason = "source configuration changed"
	}
	return result, nil
}

// Prepare clears stale contents and stamps the current schema info.
func (c *FileCache) Prepare(cfg *config.Config) (*CheckResult, error) {
	result, err := c.Check(cfg)
	if err != nil {
		return nil, err
	}
	if result.NeedsClear {
		if err := c.Clear(); err != nil {
			return nil, err
		}
	}
	err = c.SetSchemaInfo(&SchemaInfo{
		Version:    CurrentSchemaVersion,
		ConfigHash: ComputeConfigHash(cfg),
	})
	return result, err
}

// Clear removes every cached file, keeping schema info.
func (c *FileCache) Clear() error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketFiles); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucketFiles)
		return err
	})
}
