package compiler

import (
	"fmt"

	"github.com/aretw0/shindan/pkg/domain"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// HCL layout:
//
//	entry = "q1"
//
//	question "q1" {
//	  text = "..."
//	  answer {
//	    text = "..."
//	    next = "r-web"
//	  }
//	}
//
//	result "r-web" {
//	  title                = "..."
//	  recommended_services = ["web-development"]
//	}
//
// Questions are declared before results in the compiled order, since gohcl groups blocks by type.
type hclDocument struct {
	Entry     string        `hcl:"entry"`
	Questions []hclQuestion `hcl:"question,block"`
	Results   []hclResult   `hcl:"result,block"`
}

type hclQuestion struct {
	ID      string      `hcl:"id,label"`
	Text    string      `hcl:"text"`
	Hint    string      `hcl:"hint,optional"`
	Answers []hclAnswer `hcl:"answer,block"`
}

type hclAnswer struct {
	Text string `hcl:"text"`
	Next string `hcl:"next"`
}

type hclResult struct {
	ID                  string   `hcl:"id,label"`
	Title               string   `hcl:"title"`
	Description         string   `hcl:"description,optional"`
	RecommendedServices []string `hcl:"recommended_services,optional"`
	ContactPreFill      string   `hcl:"contact_pre_fill,optional"`
}

func decodeHCL(data []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %s", filename, diags.Error())
	}

	var raw hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %s", filename, diags.Error())
	}

	doc := &Document{Entry: raw.Entry}
	for _, q := range raw.Questions {
		spec := NodeSpec{Type: string(domain.NodeTypeQuestion), ID: q.ID, Text: q.Text, Hint: q.Hint}
		for _, a := range q.Answers {
			spec.Answers = append(spec.Answers, AnswerSpec{Text: a.Text, Next: a.Next})
		}
		doc.Nodes = append(doc.Nodes, spec)
	}
	for _, r := range raw.Results {
		doc.Nodes = append(doc.Nodes, NodeSpec{
			Type:                string(domain.NodeTypeResult),
			ID:                  r.ID,
			Title:               r.Title,
			Description:         r.Description,
			RecommendedServices: r.RecommendedServices,
			ContactPreFill:      r.ContactPreFill,
		})
	}
	return doc, nil
}
