package compiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/tree"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Format identifies an authoring format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("unsupported tree file extension %q (expected .yaml, .yml, .json or .hcl)", filepath.Ext(path))
	}
}

// Parser converts authored documents into trees.
// It is safe for concurrent use.
type Parser struct {
	validate *validator.Validate
}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Parse decodes raw bytes into a Document and checks its structure.
// filename is only used in error messages.
func (p *Parser) Parse(data []byte, format Format, filename string) (*Document, error) {
	var doc Document

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
		}
	case FormatHCL:
		decoded, err := decodeHCL(data, filename)
		if err != nil {
			return nil, err
		}
		doc = *decoded
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	if err := p.Check(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &doc, nil
}

// Check runs the structural rules on an authored document: required fields per node type.
// Graph rules (dangling answers, empty recommendations) are left to tree.Validate.
func (p *Parser) Check(doc *Document) error {
	err := p.validate.Struct(doc)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid document: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", tree.ErrInvalidTree, strings.Join(msgs, "; "))
}

// Compile turns a checked document into a tree.
func (p *Parser) Compile(doc *Document) (*tree.Tree, error) {
	nodes := make([]domain.Node, 0, len(doc.Nodes))
	for _, spec := range doc.Nodes {
		n, err := spec.Node()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return tree.New(doc.Entry, nodes...)
}

// ParseTree parses and compiles in one step.
func (p *Parser) ParseTree(data []byte, format Format, filename string) (*tree.Tree, error) {
	doc, err := p.Parse(data, format, filename)
	if err != nil {
		return nil, err
	}
	return p.Compile(doc)
}

// Marshal encodes a document as YAML or JSON.
func Marshal(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	default:
		return nil, fmt.Errorf("cannot encode format %q", format)
	}
}
