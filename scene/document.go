// Package scene implements the persisted document format for VoidScript
// worlds: schema-driven serialization of entities and components, scene
// assets with multiple roots and nested child scenes, and the asset manifest
// that resolves GUIDs to files.
package scene

import "errors"

// DocumentVersion is the current scene/world document format version.
const DocumentVersion = 1

var (
	// ErrDeserialization wraps all document decode and apply failures.
	ErrDeserialization = errors.New("scene: deserialization failed")

	// ErrNoRootEntity is returned when saving with an empty root list.
	ErrNoRootEntity = errors.New("scene: no root entities")

	// ErrSceneNotLoaded is returned when instantiating a scene GUID that was
	// never loaded.
	ErrSceneNotLoaded = errors.New("scene: scene not loaded")

	// ErrSceneCycle is returned when nested scene references form a cycle.
	ErrSceneCycle = errors.New("scene: nested scene cycle")

	// ErrAssetNotFound is returned for GUIDs missing from the asset manifest.
	ErrAssetNotFound = errors.New("scene: asset not found")
)

// Document is the persisted snapshot of a world or sub-tree of entities.
// Entity ids inside a document are local to it; loading remaps them to fresh
// live handles.
type Document struct {
	Version           int             `json:"version" yaml:"version"`
	ComponentRegistry []RegistryEntry `json:"componentRegistry" yaml:"componentRegistry"`
	Entities          []EntityRecord  `json:"entities" yaml:"entities"`
	Metadata          Metadata        `json:"metadata" yaml:"metadata"`
	SceneData         *SceneData      `json:"sceneData,omitempty" yaml:"sceneData,omitempty"`
}

// RegistryEntry records a type id and name pair for forward/backward
// compatibility checks.
type RegistryEntry struct {
	TypeID int    `json:"typeId" yaml:"typeId"`
	Name   string `json:"name" yaml:"name"`
}

// EntityRecord is one serialized entity. ID is document-local; Generation is
// informational and not used to re-establish identity on load.
type EntityRecord struct {
	ID         int               `json:"id" yaml:"id"`
	Generation uint32            `json:"generation" yaml:"generation"`
	Components []ComponentRecord `json:"components" yaml:"components"`
}

// ComponentRecord carries one component's serializable data. Entity-valued
// fields hold document-local ids (or null for dangling references); asset
// references hold GUID strings.
type ComponentRecord struct {
	TypeID   int            `json:"typeId" yaml:"typeId"`
	TypeName string         `json:"typeName" yaml:"typeName"`
	Data     map[string]any `json:"data" yaml:"data"`
}

// Metadata describes the document itself.
type Metadata struct {
	CreatedAt      string `json:"createdAt" yaml:"createdAt"`
	ModifiedAt     string `json:"modifiedAt" yaml:"modifiedAt"`
	EntityCount    int    `json:"entityCount" yaml:"entityCount"`
	ArchetypeCount int    `json:"archetypeCount" yaml:"archetypeCount"`
}

// SceneData is the scene-asset extension of a document: root markers, stable
// per-entity string ids, and nested child-scene references.
type SceneData struct {
	RootEntityLocalIDs []int            `json:"rootEntityLocalIds" yaml:"rootEntityLocalIds"`
	EntityIDMap        map[int]string   `json:"entityIdMap" yaml:"entityIdMap"`
	NestedScenes       []NestedSceneRef `json:"nestedScenes,omitempty" yaml:"nestedScenes,omitempty"`
}

// NestedSceneRef points at a child scene to load and instantiate recursively.
// ParentLocalID is the local id of the entity the nested instance's roots are
// attached under, or -1 to leave them as additional roots.
type NestedSceneRef struct {
	GUID          string `json:"guid" yaml:"guid"`
	ParentLocalID int    `json:"parentLocalId" yaml:"parentLocalId"`
}
