package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// AssetMetadata identifies one asset in the project: a stable GUID plus the
// path it currently lives at. Paths move, GUIDs do not, so everything on disk
// references assets by GUID.
type AssetMetadata struct {
	GUID string `json:"guid"`
	Path string `json:"path"`
	Type string `json:"type,omitempty"`
}

// Manifest is the on-disk asset index, a JSON map from GUID to metadata.
type Manifest struct {
	Version  int                      `json:"version"`
	BasePath string                   `json:"basePath,omitempty"`
	Assets   map[string]AssetMetadata `json:"assets"`
}

// Platform abstracts file access so the scene layer can run against an
// in-memory filesystem in tests and tools.
type Platform interface {
	ReadTextFile(path string) (string, error)
	WriteTextFile(path, content string) error
}

// OSPlatform is the real-filesystem Platform.
type OSPlatform struct{}

func (OSPlatform) ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (OSPlatform) WriteTextFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// AssetDatabase resolves asset GUIDs to metadata and file paths.
type AssetDatabase struct {
	platform Platform
	log      *zap.Logger
	basePath string
	assets   map[string]AssetMetadata
}

// NewAssetDatabase creates an empty database. platform and logger may be nil,
// defaulting to the OS filesystem and a no-op logger.
func NewAssetDatabase(platform Platform, logger *zap.Logger) *AssetDatabase {
	if platform == nil {
		platform = OSPlatform{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetDatabase{
		platform: platform,
		log:      logger,
		assets:   make(map[string]AssetMetadata),
	}
}

// LoadManifest reads a manifest file and merges its assets into the database.
// Later manifests win on GUID collisions.
func (db *AssetDatabase) LoadManifest(path string) error {
	raw, err := db.platform.ReadTextFile(path)
	if err != nil {
		return fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.BasePath != "" {
		db.basePath = m.BasePath
	}
	for guid, meta := range m.Assets {
		meta.GUID = guid
		db.assets[guid] = meta
	}
	db.log.Info("asset manifest loaded",
		zap.String("path", path),
		zap.Int("assets", len(m.Assets)))
	return nil
}

// Add registers or replaces one asset.
func (db *AssetDatabase) Add(meta AssetMetadata) {
	db.assets[meta.GUID] = meta
}

// Resolve returns the metadata for a GUID, or nil when unknown.
func (db *AssetDatabase) Resolve(guid string) *AssetMetadata {
	meta, ok := db.assets[guid]
	if !ok {
		return nil
	}
	return &meta
}

// PathFor returns the full path of the asset behind a GUID.
func (db *AssetDatabase) PathFor(guid string) (string, error) {
	meta, ok := db.assets[guid]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrAssetNotFound, guid)
	}
	if db.basePath != "" {
		return filepath.Join(db.basePath, meta.Path), nil
	}
	return meta.Path, nil
}

// Len reports how many assets are registered.
func (db *AssetDatabase) Len() int { return len(db.assets) }

// Resolver adapts the database into the serializer's AssetResolver.
func (db *AssetDatabase) Resolver() AssetResolver {
	return db.Resolve
}
