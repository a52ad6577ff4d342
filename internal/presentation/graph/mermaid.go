package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/tree"
)

// DefaultLabelWidth caps edge and node labels, in runes.
const DefaultLabelWidth = 24

// GraphOverlay contains session data to highlight on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromSession highlights the nodes a session has passed through.
func OverlayFromSession(s *domain.Session) *GraphOverlay {
	if s == nil {
		return nil
	}
	visited := make([]string, 0, len(s.History))
	for _, st := range s.History {
		visited = append(visited, st.NodeID)
	}
	return &GraphOverlay{VisitedNodes: visited, CurrentNode: s.Current}
}

// GenerateMermaid produces a Mermaid flowchart of the tree.
// Shapes:
// - Entry question: ((Circle))
// - Question: [/Parallelogram/]
// - Result: ([Stadium])
// - Missing target of a dangling answer: [Rectangle] with the "missing" class
// Answers become labeled edges. Overlay styles (visited/current) are applied if provided.
func GenerateMermaid(t *tree.Tree, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var missing []string
	seenMissing := make(map[string]bool)

	ids := newIDMapper()
	for _, id := range t.IDs() {
		ids.get(id)
	}

	for _, n := range t.Nodes() {
		safeID := ids.get(n.NodeID())

		switch v := n.(type) {
		case *domain.Question:
			opener, closer := "[/", "/]"
			if v.ID == t.Entry() {
				opener, closer = "((", "))"
			}
			fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, nodeLabel(v.ID, v.Text), closer)

			for _, a := range v.Answers {
				if _, ok := t.GetNode(a.NextID); !ok && !seenMissing[a.NextID] {
					seenMissing[a.NextID] = true
					missing = append(missing, a.NextID)
				}
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escapeLabel(truncate(a.Text, DefaultLabelWidth)), ids.get(a.NextID))
			}

		case *domain.Result:
			fmt.Fprintf(&sb, "    %s([\"%s\"])\n", safeID, nodeLabel(v.ID, v.Title))
		}
	}

	if len(missing) > 0 {
		sb.WriteString("\n    %% Missing targets\n")
		sb.WriteString("    classDef missing fill:#ffebee,stroke:#c62828,stroke-dasharray:5 5,color:#000;\n")
		for _, id := range missing {
			safeID := ids.get(id)
			fmt.Fprintf(&sb, "    %s[\"%s ?\"]\n", safeID, escapeLabel(id))
			fmt.Fprintf(&sb, "    class %s missing;\n", safeID)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := ids.get(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", ids.get(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func nodeLabel(id, text string) string {
	if text == "" {
		return escapeLabel(id)
	}
	return escapeLabel(id) + "<br/>" + escapeLabel(truncate(text, DefaultLabelWidth))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// idMapper assigns each node ID a distinct Mermaid ID. IDs that sanitize to the same
// form get a numeric suffix in the order they are first seen.
type idMapper struct {
	byID map[string]string
	used map[string]bool
}

func newIDMapper() *idMapper {
	return &idMapper{byID: make(map[string]string), used: make(map[string]bool)}
}

func (m *idMapper) get(id string) string {
	if safe, ok := m.byID[id]; ok {
		return safe
	}
	base := sanitizeMermaidID(id)
	safe := base
	for i := 2; m.used[safe]; i++ {
		safe = fmt.Sprintf("%s_%d", base, i)
	}
	m.used[safe] = true
	m.byID[id] = safe
	return safe
}
