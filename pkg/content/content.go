// Package content ships the diagnostic tree and service catalog used by the site.
//
// Both are compiled into the binary and parsed once per process; every caller
// receives the same read-only instances.
package content

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/aretw0/shindan/internal/compiler"
	"github.com/aretw0/shindan/pkg/catalog"
	"github.com/aretw0/shindan/pkg/tree"
)

// EntryID is the root question of the shipped diagnostic.
const EntryID = "q1"

//go:embed diagnostic.yaml
var diagnosticYAML []byte

//go:embed services.yaml
var servicesYAML []byte

var (
	treeOnce sync.Once
	treeVal  *tree.Tree
	treeErr  error

	catalogOnce sync.Once
	catalogVal  *catalog.Catalog
	catalogErr  error
)

// Load returns the shipped tree, parsing it on first use.
func Load() (*tree.Tree, error) {
	treeOnce.Do(func() {
		treeVal, treeErr = compiler.NewParser().ParseTree(diagnosticYAML, compiler.FormatYAML, "diagnostic.yaml")
	})
	return treeVal, treeErr
}

// Tree is Load for callers that treat a broken embedded file as a build defect.
func Tree() *tree.Tree {
	t, err := Load()
	if err != nil {
		panic(fmt.Sprintf("content: embedded diagnostic tree is invalid: %v", err))
	}
	return t
}

// LoadCatalog returns the shipped service catalog, parsing it on first use.
func LoadCatalog() (*catalog.Catalog, error) {
	catalogOnce.Do(func() {
		catalogVal, catalogErr = catalog.Parse(servicesYAML)
	})
	return catalogVal, catalogErr
}

// Catalog is LoadCatalog for callers that treat a broken embedded file as a build defect.
func Catalog() *catalog.Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(fmt.Sprintf("content: embedded service catalog is invalid: %v", err))
	}
	return c
}

// Raw returns the embedded tree document, e.g. for export.
func Raw() []byte {
	return append([]byte(nil), diagnosticYAML...)
}

// Loader serves the shipped tree as a ports.TreeLoader.
type Loader struct{}

// Load returns the shared shipped tree.
func (Loader) Load(ctx context.Context) (*tree.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load()
}
