package scene

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	vs "github.com/voidscript/voidscript"
)

// SceneAsset is a loaded scene document together with the GUID it was loaded
// under. The document is shared by every instance spawned from it and must be
// treated as read-only.
type SceneAsset struct {
	GUID string
	Path string
	Doc  *Document
}

// Metadata returns the document's metadata block.
func (a *SceneAsset) Metadata() Metadata { return a.Doc.Metadata }

// Instance records one spawn of a scene: its root entities plus every entity
// the spawn created, including those of nested scenes.
type Instance struct {
	GUID     string
	Roots    []vs.Entity
	Entities []vs.Entity
}

// InstantiateOptions tune a single spawn.
type InstantiateOptions struct {
	// Parent, when valid, becomes the parent of the instance's root entities.
	Parent vs.Entity
	// Overrides are "Component.field.path" keys applied after instantiation
	// to every instance entity carrying that component.
	Overrides map[string]any
	// Deserialize forwards failure-handling options to the serializer.
	Deserialize Options
}

// SaveResult reports the outcome of SaveScene.
type SaveResult struct {
	Success bool
	Path    string
	Err     error
}

// SceneManager loads scene assets by GUID, spawns live instances of them, and
// writes worlds back out as scene files.
type SceneManager struct {
	db       *AssetDatabase
	ser      *Serializer
	platform Platform
	log      *zap.Logger

	loaded    map[string]*SceneAsset
	instances map[vs.Entity]*Instance // keyed by each root of the instance
}

// NewSceneManager wires a manager. platform and logger may be nil.
func NewSceneManager(db *AssetDatabase, ser *Serializer, platform Platform, logger *zap.Logger) *SceneManager {
	if platform == nil {
		platform = OSPlatform{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SceneManager{
		db:        db,
		ser:       ser,
		platform:  platform,
		log:       logger,
		loaded:    make(map[string]*SceneAsset),
		instances: make(map[vs.Entity]*Instance),
	}
}

// LoadScene loads the scene behind a GUID, plus every nested scene it
// references, into the manager's cache. Already-loaded scenes are returned
// as-is. A nested-scene reference chain that revisits a GUID fails with
// ErrSceneCycle.
func (m *SceneManager) LoadScene(guid string) (*SceneAsset, error) {
	return m.loadScene(guid, make(map[string]bool))
}

func (m *SceneManager) loadScene(guid string, loading map[string]bool) (*SceneAsset, error) {
	// The cycle check must run before the cache check: a scene is cached
	// before its nested references finish loading, so a back-reference to an
	// ancestor would otherwise look like a cache hit.
	if loading[guid] {
		return nil, fmt.Errorf("%w: %s", ErrSceneCycle, guid)
	}
	if asset, ok := m.loaded[guid]; ok {
		return asset, nil
	}
	loading[guid] = true
	defer delete(loading, guid)

	path, err := m.db.PathFor(guid)
	if err != nil {
		return nil, err
	}
	raw, err := m.platform.ReadTextFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	doc, err := DecodeDocument([]byte(raw), FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", guid, err)
	}

	asset := &SceneAsset{GUID: guid, Path: path, Doc: doc}
	m.loaded[guid] = asset

	if doc.SceneData != nil {
		for _, ref := range doc.SceneData.NestedScenes {
			if _, err := m.loadScene(ref.GUID, loading); err != nil {
				delete(m.loaded, guid)
				return nil, err
			}
		}
	}
	m.log.Info("scene loaded",
		zap.String("guid", guid),
		zap.String("path", path),
		zap.Int("entities", len(doc.Entities)))
	return asset, nil
}

// IsLoaded reports whether a scene GUID is in the cache.
func (m *SceneManager) IsLoaded(guid string) bool {
	_, ok := m.loaded[guid]
	return ok
}

// UnloadScene drops a cached scene document. Live instances are unaffected.
func (m *SceneManager) UnloadScene(guid string) {
	delete(m.loaded, guid)
}

// Instantiate spawns a fresh copy of the scene into the world. Every call
// produces independent entities; instantiating the same scene twice shares
// nothing. Nested scenes are instantiated recursively and parented under
// their anchor entity. The returned instance is tracked so it can later be
// despawned through any of its roots.
func (m *SceneManager) Instantiate(w *vs.World, guid string, opts InstantiateOptions) (*Instance, error) {
	asset, err := m.LoadScene(guid)
	if err != nil {
		return nil, err
	}
	desOpts := opts.Deserialize
	desOpts.Mode = ModeAdditive
	res, err := m.ser.Deserialize(asset.Doc, w, desOpts)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", guid, err)
	}

	inst := &Instance{GUID: guid, Entities: res.Entities}
	// A spawn that fails partway leaves no trace: everything created so far
	// is destroyed before the error surfaces.
	abort := func(err error) (*Instance, error) {
		for _, e := range inst.Entities {
			_ = w.DestroyEntity(e)
		}
		return nil, err
	}
	for _, id := range rootLocalIDs(asset.Doc) {
		root, ok := res.ByLocalID[id]
		if !ok {
			return abort(fmt.Errorf("%w: instantiate %s: root local id %d missing",
				ErrDeserialization, guid, id))
		}
		inst.Roots = append(inst.Roots, root)
	}

	if asset.Doc.SceneData != nil {
		for _, ref := range asset.Doc.SceneData.NestedScenes {
			nested, err := m.Instantiate(w, ref.GUID, InstantiateOptions{Deserialize: opts.Deserialize})
			if err != nil {
				// A failed nested spawn has already torn itself down.
				return abort(err)
			}
			// Nested instances fold into the outer one so a single despawn
			// (or abort) tears down the whole tree.
			inst.Entities = append(inst.Entities, nested.Entities...)
			for _, nr := range nested.Roots {
				delete(m.instances, nr)
			}
			anchor := vs.NilEntity
			if ref.ParentLocalID >= 0 {
				anchor = res.ByLocalID[ref.ParentLocalID]
			}
			for _, nr := range nested.Roots {
				if !anchor.IsNil() {
					if err := vs.SetParent(w, nr, anchor); err != nil {
						return abort(fmt.Errorf("instantiate %s: parent nested scene %s: %w", guid, ref.GUID, err))
					}
				} else {
					inst.Roots = append(inst.Roots, nr)
				}
			}
		}
	}

	if !opts.Parent.IsNil() {
		for _, root := range inst.Roots {
			if err := vs.SetParent(w, root, opts.Parent); err != nil {
				return abort(fmt.Errorf("instantiate %s: %w", guid, err))
			}
		}
	}

	if err := m.applyOverrides(w, inst, opts.Overrides); err != nil {
		return abort(fmt.Errorf("instantiate %s: %w", guid, err))
	}

	for _, root := range inst.Roots {
		m.instances[root] = inst
	}
	m.log.Info("scene instantiated",
		zap.String("guid", guid),
		zap.Int("entities", len(inst.Entities)),
		zap.Int("roots", len(inst.Roots)))
	return inst, nil
}

// applyOverrides writes "Component.field.path" values onto every instance
// entity that carries the named component.
func (m *SceneManager) applyOverrides(w *vs.World, inst *Instance, overrides map[string]any) error {
	for key, val := range overrides {
		comp, path, ok := strings.Cut(key, ".")
		if !ok {
			return fmt.Errorf("override %q: want \"Component.field\"", key)
		}
		ct, exists := m.ser.registry.ByName(comp)
		if !exists {
			return fmt.Errorf("override %q: %w: %s", key, vs.ErrUnknownComponent, comp)
		}
		applied := false
		for _, e := range inst.Entities {
			if !w.HasComponent(e, ct.ID) {
				continue
			}
			if err := w.SetField(e, comp, path, val); err != nil {
				return fmt.Errorf("override %q: %w", key, err)
			}
			applied = true
		}
		if !applied {
			m.log.Warn("override matched no entities", zap.String("key", key))
		}
	}
	return nil
}

// DespawnSceneByRootEntity destroys every entity of the instance whose root
// is the given entity. Returns ErrSceneNotLoaded when the entity is not a
// tracked instance root.
func (m *SceneManager) DespawnSceneByRootEntity(w *vs.World, root vs.Entity) error {
	inst, ok := m.instances[root]
	if !ok {
		return fmt.Errorf("%w: entity %d@%d is not an instance root",
			ErrSceneNotLoaded, root.Index(), root.Generation())
	}
	for _, r := range inst.Roots {
		delete(m.instances, r)
	}
	destroyed := 0
	for _, e := range inst.Entities {
		if w.DestroyEntity(e) == nil {
			destroyed++
		}
	}
	m.log.Info("scene instance despawned",
		zap.String("guid", inst.GUID),
		zap.Int("destroyed", destroyed))
	return nil
}

// SaveScene serializes the given roots (and their descendants) and writes the
// document to path, choosing JSON or YAML from the extension. Roots occupy
// local ids 0..len(roots)-1 and are recorded as the document's root set, and
// every entity gets a freshly generated stable id.
func (m *SceneManager) SaveScene(w *vs.World, roots []vs.Entity, path string) SaveResult {
	doc, err := m.ser.Serialize(w, roots)
	if err != nil {
		return SaveResult{Path: path, Err: err}
	}

	sd := &SceneData{EntityIDMap: make(map[int]string, len(doc.Entities))}
	for i := range roots {
		sd.RootEntityLocalIDs = append(sd.RootEntityLocalIDs, i)
	}
	for _, rec := range doc.Entities {
		sd.EntityIDMap[rec.ID] = newStableID()
	}
	doc.SceneData = sd

	data, err := EncodeDocument(doc, FormatForPath(path))
	if err != nil {
		return SaveResult{Path: path, Err: err}
	}
	if err := m.platform.WriteTextFile(path, string(data)); err != nil {
		return SaveResult{Path: path, Err: fmt.Errorf("write scene %s: %w", path, err)}
	}
	m.log.Info("scene saved",
		zap.String("path", path),
		zap.Int("entities", len(doc.Entities)))
	return SaveResult{Success: true, Path: path}
}

// rootLocalIDs returns the document's declared roots, falling back to every
// entity without an in-document parent when no SceneData block exists.
func rootLocalIDs(doc *Document) []int {
	if doc.SceneData != nil && len(doc.SceneData.RootEntityLocalIDs) > 0 {
		return doc.SceneData.RootEntityLocalIDs
	}
	childIDs := make(map[int]bool)
	for _, rec := range doc.Entities {
		for _, comp := range rec.Components {
			if comp.TypeName != "Children" {
				continue
			}
			if ids, ok := comp.Data["ids"].([]any); ok {
				for _, id := range ids {
					if n, ok := asInt(id); ok {
						childIDs[n] = true
					}
				}
			}
		}
	}
	var roots []int
	for _, rec := range doc.Entities {
		if !childIDs[rec.ID] {
			roots = append(roots, rec.ID)
		}
	}
	return roots
}

func newStableID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf[:])
}
