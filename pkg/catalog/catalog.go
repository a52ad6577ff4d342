package catalog

import (
	"fmt"
	"net/url"

	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/tree"
	"gopkg.in/yaml.v3"
)

// ContactPath is the site path of the contact form that receives a result's pre-fill text.
const ContactPath = "/contact/"

// Service is one entry of the service catalog that Results point at.
type Service struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Icon       string `json:"icon,omitempty" yaml:"icon,omitempty"`
	PriceRange string `json:"price_range,omitempty" yaml:"price_range,omitempty"`
	PriceUnit  string `json:"price_unit,omitempty" yaml:"price_unit,omitempty"`
}

// Href is the service page path on the site.
func (s Service) Href() string {
	return "/services/" + s.ID + "/"
}

// Catalog is an immutable, ordered set of services.
type Catalog struct {
	services []Service
	byID     map[string]int
}

// New builds a catalog, rejecting empty and duplicate IDs.
func New(services ...Service) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(services))}
	for _, s := range services {
		if s.ID == "" {
			return nil, fmt.Errorf("service %q has no id", s.Title)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate service id %q", s.ID)
		}
		c.byID[s.ID] = len(c.services)
		c.services = append(c.services, s)
	}
	return c, nil
}

// Parse reads a YAML document with a top-level "services" list.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Services []Service `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse service catalog: %w", err)
	}
	return New(doc.Services...)
}

// Get returns the service with the given ID.
func (c *Catalog) Get(id string) (Service, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Service{}, false
	}
	return c.services[i], true
}

// IDs returns every service ID in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.services))
	for i, s := range c.services {
		ids[i] = s.ID
	}
	return ids
}

// Services returns a copy of every service in catalog order.
func (c *Catalog) Services() []Service {
	return append([]Service(nil), c.services...)
}

// Resolve maps IDs to services, keeping the given (relevance) order.
// Unknown IDs are returned separately.
func (c *Catalog) Resolve(ids []string) (found []Service, missing []string) {
	for _, id := range ids {
		if s, ok := c.Get(id); ok {
			found = append(found, s)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing
}

// Check returns a tree.Check reporting recommendations that name an unknown service.
// It is an audit separate from tree.Validate.
func (c *Catalog) Check() tree.Check {
	return func(t *tree.Tree) []tree.Finding {
		var findings []tree.Finding
		for _, n := range t.Nodes() {
			r, ok := n.(*domain.Result)
			if !ok {
				continue
			}
			_, missing := c.Resolve(r.RecommendedServices)
			for _, id := range missing {
				findings = append(findings, tree.Finding{
					Kind:   tree.FindingUnknownService,
					NodeID: r.ID,
					Target: id,
				})
			}
		}
		return findings
	}
}

// ContactLink builds the contact form URL carrying the result's pre-fill text.
func ContactLink(r *domain.Result) string {
	if r.ContactPreFill == "" {
		return ContactPath
	}
	q := url.Values{}
	q.Set("message", r.ContactPreFill)
	return ContactPath + "?" + q.Encode()
}
