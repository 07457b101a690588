package scene

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	vs "github.com/voidscript/voidscript"
)

// AssetResolver looks up asset metadata by GUID, returning nil for unknown
// assets. Injected so the serializer never depends on how assets are stored.
type AssetResolver func(guid string) *AssetMetadata

// Mode selects how Deserialize treats the target world.
type Mode int

const (
	// ModeReplace clears the target world before recreating the document's
	// entities.
	ModeReplace Mode = iota
	// ModeAdditive keeps existing entities and appends the document's; the
	// two sets share no identity.
	ModeAdditive
)

// Options tune deserialization failure handling.
type Options struct {
	Mode Mode
	// ContinueOnError skips components that fail to apply, recording a
	// warning instead of aborting.
	ContinueOnError bool
	// SkipMissingComponents drops component types absent from the live
	// registry with a warning rather than failing the entity.
	SkipMissingComponents bool
}

// Result reports what a deserialize produced. Entities is in document order,
// ByLocalID maps document-local ids to live handles.
type Result struct {
	Entities   []vs.Entity
	ByLocalID  map[int]vs.Entity
	Warnings   []string
	ErrorCount int
}

func (r *Result) warnf(log *zap.Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Warn(msg)
}

// Serializer converts worlds to and from Documents using the component
// registry's field schemas.
type Serializer struct {
	registry     *vs.Registry
	log          *zap.Logger
	resolveAsset AssetResolver
}

// NewSerializer creates a serializer. logger and resolver may be nil.
func NewSerializer(registry *vs.Registry, logger *zap.Logger, resolver AssetResolver) *Serializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = func(string) *AssetMetadata { return nil }
	}
	return &Serializer{registry: registry, log: logger, resolveAsset: resolver}
}

// Serialize walks the given roots and all their descendants, assigns each
// reachable entity a document-local id (roots first, in argument order), and
// emits every serializable component with non-serializable fields stripped
// and entity references rewritten into local-id space. References to
// entities outside the document serialize as null.
func (s *Serializer) Serialize(w *vs.World, roots []vs.Entity) (*Document, error) {
	if len(roots) == 0 {
		return nil, ErrNoRootEntity
	}
	ordered, localID, err := collectReachable(w, roots)
	if err != nil {
		return nil, err
	}

	doc := &Document{Version: DocumentVersion}
	usedTypes := make(map[int]string)
	signatures := make(map[string]struct{})

	for _, e := range ordered {
		rec := EntityRecord{ID: localID[e], Generation: e.Generation()}
		var sig []string
		for _, ct := range w.ComponentTypesOf(e) {
			if !ct.Serializable {
				continue
			}
			data, err := w.ReadComponent(e, ct.Name)
			if err != nil {
				return nil, fmt.Errorf("serialize entity %d: %w", localID[e], err)
			}
			s.remapOut(ct.Fields, data, localID)
			rec.Components = append(rec.Components, ComponentRecord{
				TypeID:   int(ct.ID),
				TypeName: ct.Name,
				Data:     data,
			})
			usedTypes[int(ct.ID)] = ct.Name
			sig = append(sig, ct.Name)
		}
		sort.Strings(sig)
		signatures[strings.Join(sig, ",")] = struct{}{}
		doc.Entities = append(doc.Entities, rec)
	}

	for id, name := range usedTypes {
		doc.ComponentRegistry = append(doc.ComponentRegistry, RegistryEntry{TypeID: id, Name: name})
	}
	sort.Slice(doc.ComponentRegistry, func(i, j int) bool {
		return doc.ComponentRegistry[i].TypeID < doc.ComponentRegistry[j].TypeID
	})

	now := time.Now().UTC().Format(time.RFC3339)
	doc.Metadata = Metadata{
		CreatedAt:      now,
		ModifiedAt:     now,
		EntityCount:    len(ordered),
		ArchetypeCount: len(signatures),
	}
	return doc, nil
}

// collectReachable gathers roots plus all descendants in breadth-first order
// and assigns local ids in that order, so roots always occupy ids 0..N-1.
func collectReachable(w *vs.World, roots []vs.Entity) ([]vs.Entity, map[vs.Entity]int, error) {
	localID := make(map[vs.Entity]int)
	var ordered []vs.Entity
	queue := make([]vs.Entity, 0, len(roots))
	for _, r := range roots {
		if !w.IsAlive(r) {
			return nil, nil, fmt.Errorf("%w: root %d@%d", vs.ErrInvalidEntity, r.Index(), r.Generation())
		}
		if _, seen := localID[r]; seen {
			continue
		}
		localID[r] = len(ordered)
		ordered = append(ordered, r)
		queue = append(queue, r)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range vs.ChildrenOf(w, cur) {
			if !w.IsAlive(child) {
				continue
			}
			if _, seen := localID[child]; seen {
				continue
			}
			localID[child] = len(ordered)
			ordered = append(ordered, child)
			queue = append(queue, child)
		}
	}
	return ordered, localID, nil
}

// remapOut rewrites entity-valued fields in a data map from live handles to
// document-local ids. Unreachable or dead references become nil.
func (s *Serializer) remapOut(fields []vs.FieldSpec, data map[string]any, localID map[vs.Entity]int) {
	for i := range fields {
		f := &fields[i]
		if !f.Serializable {
			continue
		}
		val, ok := data[f.Name]
		if !ok {
			continue
		}
		switch f.Kind {
		case vs.KindEntity:
			e, _ := val.(vs.Entity)
			if id, ok := localID[e]; ok {
				data[f.Name] = id
			} else {
				data[f.Name] = nil
			}
		case vs.KindEntitySlice:
			refs, _ := val.([]vs.Entity)
			out := make([]any, 0, len(refs))
			for _, e := range refs {
				if id, ok := localID[e]; ok {
					out = append(out, id)
				}
			}
			data[f.Name] = out
		case vs.KindStruct:
			if sub, ok := val.(map[string]any); ok {
				s.remapOut(f.Fields, sub, localID)
			}
		}
	}
}

// Deserialize recreates a document's entities in the target world. Loading is
// two-pass: all entities are created first, then component data is applied
// with intra-document references resolved through the local-id map, since
// forward references are legal. A fatal error leaves no trace on the target
// world: ModeReplace clears it again, ModeAdditive destroys the entities the
// load created.
func (s *Serializer) Deserialize(doc *Document, w *vs.World, opts Options) (*Result, error) {
	if doc.Version > DocumentVersion {
		return nil, fmt.Errorf("%w: document version %d is newer than supported %d",
			ErrDeserialization, doc.Version, DocumentVersion)
	}
	if opts.Mode == ModeReplace {
		w.Clear()
	}
	res := &Result{ByLocalID: make(map[int]vs.Entity, len(doc.Entities))}

	fail := func(err error) (*Result, error) {
		if opts.Mode == ModeReplace {
			w.Clear()
		} else {
			for _, e := range res.Entities {
				_ = w.DestroyEntity(e)
			}
		}
		return nil, err
	}

	// Pass 1: create every entity and build the local-id map.
	for _, rec := range doc.Entities {
		if _, dup := res.ByLocalID[rec.ID]; dup {
			return fail(fmt.Errorf("%w: duplicate local entity id %d", ErrDeserialization, rec.ID))
		}
		e := w.CreateEntity()
		res.ByLocalID[rec.ID] = e
		res.Entities = append(res.Entities, e)
	}

	// Pass 2: add components and apply data with references resolved.
	for _, rec := range doc.Entities {
		e := res.ByLocalID[rec.ID]
		for _, comp := range rec.Components {
			ct, ok := s.registry.ByName(comp.TypeName)
			if !ok {
				if opts.SkipMissingComponents {
					res.warnf(s.log, "entity %d: skipping unknown component %q", rec.ID, comp.TypeName)
					continue
				}
				return fail(fmt.Errorf("%w: unknown component type %q", ErrDeserialization, comp.TypeName))
			}
			if err := s.applyComponent(w, e, ct, comp.Data, res, rec.ID); err != nil {
				if opts.ContinueOnError {
					res.ErrorCount++
					res.warnf(s.log, "entity %d: component %q: %v", rec.ID, comp.TypeName, err)
					continue
				}
				return fail(fmt.Errorf("%w: entity %d component %q: %v",
					ErrDeserialization, rec.ID, comp.TypeName, err))
			}
		}
	}
	return res, nil
}

// applyComponent adds the component (running its default factory, which also
// restores non-serializable fields) and writes the document data over it.
func (s *Serializer) applyComponent(w *vs.World, e vs.Entity, ct *vs.ComponentType, data map[string]any, res *Result, localID int) error {
	if _, err := w.AddComponentByID(e, ct.ID); err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	resolved, err := s.remapIn(ct.Fields, data, res, localID)
	if err != nil {
		return err
	}
	return w.WriteComponent(e, ct.Name, resolved)
}

// remapIn converts document values back into live ones: local entity ids into
// handles, nested maps recursively. Asset GUIDs are validated against the
// resolver; an unresolvable GUID is downgraded to a warning since the asset
// may simply not be imported yet.
func (s *Serializer) remapIn(fields []vs.FieldSpec, data map[string]any, res *Result, localID int) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for key, val := range data {
		f, err := findSpec(fields, key)
		if err != nil {
			return nil, err
		}
		switch f.Kind {
		case vs.KindEntity:
			if val == nil {
				out[key] = vs.NilEntity
				continue
			}
			ref, ok := asInt(val)
			if !ok {
				return nil, fmt.Errorf("field %q: entity reference must be a local id, got %T", key, val)
			}
			live, ok := res.ByLocalID[ref]
			if !ok {
				return nil, fmt.Errorf("field %q: unresolvable local entity id %d", key, ref)
			}
			out[key] = live
		case vs.KindEntitySlice:
			raw, ok := val.([]any)
			if !ok && val != nil {
				return nil, fmt.Errorf("field %q: entity list must be an array, got %T", key, val)
			}
			refs := make([]vs.Entity, 0, len(raw))
			for _, item := range raw {
				ref, ok := asInt(item)
				if !ok {
					return nil, fmt.Errorf("field %q: entity reference must be a local id, got %T", key, item)
				}
				live, ok := res.ByLocalID[ref]
				if !ok {
					return nil, fmt.Errorf("field %q: unresolvable local entity id %d", key, ref)
				}
				refs = append(refs, live)
			}
			out[key] = refs
		case vs.KindStruct:
			sub, ok := val.(map[string]any)
			if !ok && val != nil {
				return nil, fmt.Errorf("field %q: expected object, got %T", key, val)
			}
			resolved, err := s.remapIn(f.Fields, sub, res, localID)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		default:
			if f.AssetRef {
				if guid, ok := val.(string); ok && guid != "" {
					if s.resolveAsset(guid) == nil {
						res.warnf(s.log, "entity %d: field %q references unknown asset %q", localID, key, guid)
					}
				}
			}
			out[key] = val
		}
	}
	return out, nil
}

func findSpec(fields []vs.FieldSpec, name string) (*vs.FieldSpec, error) {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i], nil
		}
	}
	return nil, fmt.Errorf("unknown field %q", name)
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	}
	return 0, false
}
