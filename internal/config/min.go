package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raoulx24/ghee/internal/retention"
)

// MinSpec is the "min" setting of a job: all, latest, none, a snapshot
// count or a span such as "5d".
type MinSpec struct {
	Policy retention.MinPolicy
}

func (m *MinSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: min must be a scalar", node.Line)
	}
	p, err := parseMin(node.Value, node.Tag == "!!int")
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	m.Policy = p
	return nil
}

func (m MinSpec) MarshalYAML() (any, error) {
	if m.Policy == nil {
		return retention.MinNone{}.String(), nil
	}
	return m.Policy.String(), nil
}

func parseMin(s string, integer bool) (retention.MinPolicy, error) {
	s = strings.TrimSpace(s)
	if integer {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid min count %q", s)
		}
		if n < 0 {
			return nil, fmt.Errorf("min count must not be negative, got %d", n)
		}
		return retention.MinCount{N: n}, nil
	}

	switch strings.ToLower(s) {
	case "all":
		return retention.MinAll{}, nil
	case "latest":
		return retention.MinLatest{}, nil
	case "none", "":
		return retention.MinNone{}, nil
	}

	span, err := retention.ParseSpan(s)
	if err != nil {
		return nil, fmt.Errorf("invalid min %q: want all, latest, none, a count or a span like 5d: %w", s, err)
	}
	return retention.MinDuration{Span: span}, nil
}
