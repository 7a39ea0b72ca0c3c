// Package jsonschema converts JSON Schema documents into the canonical
// type tree. It covers the subset that describes data shape: type,
// properties, items, required, and the anyOf/oneOf combinators. Keywords
// that constrain values rather than shape (pattern, minimum, enum) are
// ignored.
package jsonschema

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/FocuswithJustin/SchemaScope/core/errors"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
	"github.com/FocuswithJustin/SchemaScope/internal/dialects"
)

// Name is the registry key for this dialect.
const Name = "jsonschema"

func init() {
	// No extension claim: .json is shared with dbt manifests and sampled
	// records, so content markers decide.
	dialects.Register(&dialects.Dialect{
		Name:           Name,
		ContentMarkers: []string{"$schema", "\"properties\""},
		Parse:          Parse,
	})
}

// schema mirrors the keywords we read. Unknown keywords decode into
// nothing and are silently ignored.
type schema struct {
	Title      string             `json:"title"`
	Type       json.RawMessage    `json:"type"`
	Format     string             `json:"format"`
	Properties map[string]*schema `json:"properties"`
	Items      *schema            `json:"items"`
	Required   []string           `json:"required"`
	AnyOf      []*schema          `json:"anyOf"`
	OneOf      []*schema          `json:"oneOf"`
	Ref        string             `json:"$ref"`
}

// Parse builds a tree from a JSON Schema document. A non-object root
// schema is coerced to an object with a single "value" field so the
// result always satisfies the object-root contract.
func Parse(src []byte, opts dialects.Options) (*dialects.Result, error) {
	var root schema
	if err := json.Unmarshal(src, &root); err != nil {
		return nil, errors.NewParse(Name, opts.Path, 0, err.Error())
	}

	required := typetree.NewPathSet()
	node := buildNode(&root, "", required)

	obj, ok := node.(typetree.Object)
	if !ok {
		obj = typetree.NewObject(typetree.Field{Name: "value", Type: node})
		required = typetree.NewPathSet()
		collectRequired(&root, "value", required)
	}
	return &dialects.Result{Root: obj, Required: required, Label: root.Title}, nil
}

// buildNode converts one subschema. prefix is the dotted path of the
// field holding it, used when recording required paths.
func buildNode(s *schema, prefix string, required typetree.PathSet) typetree.Node {
	if s == nil {
		return typetree.NewScalar(typetree.KindAny)
	}
	if s.Ref != "" {
		// References are not resolved; the shape is unknown here.
		return typetree.NewScalar(typetree.KindAny)
	}
	if alts := s.AnyOf; len(alts) > 0 || len(s.OneOf) > 0 {
		if len(alts) == 0 {
			alts = s.OneOf
		}
		members := make([]typetree.Node, 0, len(alts))
		for _, alt := range alts {
			members = append(members, buildNode(alt, prefix, required))
		}
		return typetree.MergeAll(members...)
	}

	types, err := typeList(s.Type)
	if err != nil {
		return typetree.NewScalar(typetree.KindAny)
	}
	if len(types) == 0 {
		if len(s.Properties) > 0 {
			types = []string{"object"}
		} else if s.Items != nil {
			types = []string{"array"}
		} else {
			return typetree.NewScalar(typetree.KindAny)
		}
	}

	members := make([]typetree.Node, 0, len(types))
	for _, t := range types {
		members = append(members, buildTyped(s, t, prefix, required))
	}
	return typetree.MergeAll(members...)
}

func buildTyped(s *schema, typ, prefix string, required typetree.PathSet) typetree.Node {
	switch typ {
	case "object":
		names := make([]string, 0, len(s.Properties))
		for name := range s.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make([]typetree.Field, 0, len(names))
		for _, name := range names {
			path := typetree.JoinPath(prefix, name)
			fields = append(fields, typetree.Field{
				Name: name,
				Type: buildNode(s.Properties[name], path, required),
			})
		}
		for _, name := range s.Required {
			if _, ok := s.Properties[name]; ok {
				required.Add(typetree.JoinPath(prefix, name))
			}
		}
		return typetree.NewObject(fields...)
	case "array":
		if s.Items == nil {
			return typetree.UnknownArray()
		}
		// Array elements keep the holder's path: indices are not segments.
		return typetree.NewArray(buildNode(s.Items, prefix, required))
	case "string":
		switch s.Format {
		case "date":
			return typetree.NewScalar(typetree.KindDate)
		case "time":
			return typetree.NewScalar(typetree.KindTime)
		case "date-time":
			return typetree.NewScalar(typetree.KindTimestamp)
		}
		return typetree.NewScalar(typetree.KindStr)
	case "integer":
		return typetree.NewScalar(typetree.KindInt)
	case "number":
		return typetree.NewScalar(typetree.KindFloat)
	case "boolean":
		return typetree.NewScalar(typetree.KindBool)
	case "null":
		return typetree.NewScalar(typetree.KindMissing)
	}
	return typetree.NewScalar(typetree.KindAny)
}

// collectRequired re-walks a coerced root so its required paths land
// under the synthetic "value" field.
func collectRequired(s *schema, prefix string, required typetree.PathSet) {
	if s == nil {
		return
	}
	for _, name := range s.Required {
		required.Add(typetree.JoinPath(prefix, name))
	}
	for name, child := range s.Properties {
		collectRequired(child, typetree.JoinPath(prefix, name), required)
	}
	if s.Items != nil {
		collectRequired(s.Items, prefix, required)
	}
	for _, alt := range s.AnyOf {
		collectRequired(alt, prefix, required)
	}
	for _, alt := range s.OneOf {
		collectRequired(alt, prefix, required)
	}
}

// typeList reads the "type" keyword, which is a string or a list of
// strings.
func typeList(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []string{one}, nil
}
