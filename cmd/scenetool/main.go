// scenetool inspects and converts scene files without a live world:
//
//	scenetool info scene.json
//	scenetool validate scene.json
//	scenetool convert scene.json scene.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/voidscript/voidscript/config"
	"github.com/voidscript/voidscript/scene"
)

func main() {
	configPath := flag.String("config", "", "optional TOML config path")
	flag.Parse()

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "info":
		err = runInfo(args[1:])
	case "validate":
		err = runValidate(args[1:], logger)
	case "convert":
		err = runConvert(args[1:], logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: scenetool [-config path] <info|validate|convert> <scene file> [output file]")
}

func loadDocument(path string) (*scene.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return scene.DecodeDocument(data, scene.FormatForPath(path))
}

func runInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("info: want exactly one scene file")
	}
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("version:     %d\n", doc.Version)
	fmt.Printf("entities:    %d\n", len(doc.Entities))
	fmt.Printf("archetypes:  %d\n", doc.Metadata.ArchetypeCount)
	fmt.Printf("modified:    %s\n", doc.Metadata.ModifiedAt)
	fmt.Printf("components:\n")
	for _, entry := range doc.ComponentRegistry {
		fmt.Printf("  %3d  %s\n", entry.TypeID, entry.Name)
	}
	if doc.SceneData != nil {
		fmt.Printf("roots:       %v\n", doc.SceneData.RootEntityLocalIDs)
		fmt.Printf("nested:      %d\n", len(doc.SceneData.NestedScenes))
	}
	return nil
}

// runValidate checks structural consistency: unique local ids, entity
// references that resolve inside the document, and component types present in
// the document's registry table.
func runValidate(args []string, logger *zap.Logger) error {
	if len(args) != 1 {
		return fmt.Errorf("validate: want exactly one scene file")
	}
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(doc.ComponentRegistry))
	for _, entry := range doc.ComponentRegistry {
		known[entry.Name] = true
	}
	ids := make(map[int]bool, len(doc.Entities))
	problems := 0
	for _, rec := range doc.Entities {
		if ids[rec.ID] {
			logger.Error("duplicate local entity id", zap.Int("id", rec.ID))
			problems++
		}
		ids[rec.ID] = true
		for _, comp := range rec.Components {
			if !known[comp.TypeName] {
				logger.Error("component missing from registry table",
					zap.Int("entity", rec.ID), zap.String("component", comp.TypeName))
				problems++
			}
		}
	}
	for _, rec := range doc.Entities {
		for _, comp := range rec.Components {
			problems += checkRefs(logger, rec.ID, comp.TypeName, comp.Data, ids)
		}
	}
	if doc.SceneData != nil {
		for _, root := range doc.SceneData.RootEntityLocalIDs {
			if !ids[root] {
				logger.Error("root id not in document", zap.Int("id", root))
				problems++
			}
		}
	}
	if problems > 0 {
		return fmt.Errorf("validate: %d problem(s) in %s", problems, args[0])
	}
	logger.Info("scene is valid",
		zap.String("path", args[0]),
		zap.Int("entities", len(doc.Entities)))
	return nil
}

// checkRefs flags integer-valued fields named like references that point
// outside the document. Without a live registry the check is heuristic: it
// only verifies values that decode as local ids inside arrays under keys the
// built-in hierarchy components use.
func checkRefs(logger *zap.Logger, entityID int, compName string, data map[string]any, ids map[int]bool) int {
	problems := 0
	for key, val := range data {
		switch v := val.(type) {
		case map[string]any:
			problems += checkRefs(logger, entityID, compName, v, ids)
		case []any:
			if key != "ids" {
				continue
			}
			for _, item := range v {
				if n, ok := v2int(item); ok && !ids[n] {
					logger.Error("dangling entity reference",
						zap.Int("entity", entityID),
						zap.String("component", compName),
						zap.String("field", key),
						zap.Int("ref", n))
					problems++
				}
			}
		case float64:
			if key == "entity" && !ids[int(v)] {
				logger.Error("dangling entity reference",
					zap.Int("entity", entityID),
					zap.String("component", compName),
					zap.String("field", key),
					zap.Int("ref", int(v)))
				problems++
			}
		}
	}
	return problems
}

func v2int(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func runConvert(args []string, logger *zap.Logger) error {
	if len(args) != 2 {
		return fmt.Errorf("convert: want input and output files")
	}
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	out, err := scene.EncodeDocument(doc, scene.FormatForPath(args[1]))
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], out, 0o644); err != nil {
		return err
	}
	logger.Info("converted",
		zap.String("from", args[0]),
		zap.String("to", args[1]),
		zap.Int("entities", len(doc.Entities)))
	return nil
}
