package hcl

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/datumgraph/internal/config"
	"github.com/vk/datumgraph/internal/ctxlog"
)

// Extension is the file extension of documents found by walking directories.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL document loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes the top level of a document. Anything but node blocks
// is rejected.
type fileRoot struct {
	Nodes []*nodeBlock `hcl:"node,block"`
}

type nodeBlock struct {
	Type string   `hcl:"type,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// Load parses every document at the given paths, walking directories for
// files ending in Extension, and merges them into a single model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s documents found in %v", Extension, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	doc := &config.Document{}
	for _, path := range files {
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}
		if err := l.translateFile(ctx, doc, file); err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, err)
		}
	}

	logger.Debug("HCL loading complete.", "files", len(files), "nodes", len(doc.Nodes))
	return doc, nil
}

// LoadSource parses a single document held in memory.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*config.Document, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	doc := &config.Document{}
	if err := l.translateFile(ctx, doc, file); err != nil {
		return nil, fmt.Errorf("failed to decode HCL source %s: %w", filename, err)
	}
	return doc, nil
}

func (l *Loader) translateFile(ctx context.Context, doc *config.Document, file *hcl.File) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return diags
	}
	for _, block := range root.Nodes {
		decl, err := l.translateNode(ctx, block, file.Bytes)
		if err != nil {
			return err
		}
		if prev, exists := doc.Node(decl.Name); exists {
			return fmt.Errorf("node %q declared at %s and at %s", decl.Name, prev.Source, decl.Source)
		}
		doc.Nodes = append(doc.Nodes, decl)
	}
	return nil
}

// findAllHCLFiles walks all given paths and returns a flat, sorted list of
// the documents found. Files named explicitly are kept whatever their
// extension.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		var found []string
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == Extension {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return all, nil
}
