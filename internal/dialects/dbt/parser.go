// Package dbt reads model schemas out of dbt artifacts: the compiled
// manifest.json and the hand-written schema.yml. Column types use the
// same token mapping as raw SQL DDL, and not_null tests or constraints
// mark columns required.
package dbt

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/SchemaScope/core/errors"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
	"github.com/FocuswithJustin/SchemaScope/internal/dialects"
	"github.com/FocuswithJustin/SchemaScope/internal/dialects/sqlddl"
)

// Name is the registry key for this dialect.
const Name = "dbt"

func init() {
	dialects.Register(&dialects.Dialect{
		Name:           Name,
		Extensions:     []string{".yml", ".yaml"},
		ContentMarkers: []string{"\"nodes\"", "models:"},
		Parse:          Parse,
	})
}

// model is the dialect-internal shape both artifact formats reduce to.
type model struct {
	name    string
	columns []column
}

type column struct {
	name     string
	dataType string
	required bool
}

// Parse accepts either artifact. Manifests are JSON objects; anything
// else is treated as a schema.yml document.
func Parse(src []byte, opts dialects.Options) (*dialects.Result, error) {
	var (
		models []model
		err    error
	)
	if bytes.HasPrefix(bytes.TrimLeft(src, " \t\r\n"), []byte("{")) {
		models, err = manifestModels(src, opts.Path)
	} else {
		models, err = schemaModels(src, opts.Path)
	}
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, errors.NewParse(Name, opts.Path, 0, "no models found")
	}

	m, err := selectModel(models, opts.Selector)
	if err != nil {
		return nil, err
	}

	required := typetree.NewPathSet()
	fields := make([]typetree.Field, 0, len(m.columns))
	for _, c := range m.columns {
		kind := typetree.KindAny
		if c.dataType != "" {
			kind = sqlddl.KindOf(c.dataType)
		}
		fields = append(fields, typetree.Field{Name: c.name, Type: typetree.NewScalar(kind)})
		if c.required {
			required.Add(c.name)
		}
	}
	return &dialects.Result{
		Root:     typetree.NewObject(fields...),
		Required: required,
		Label:    m.name,
	}, nil
}

// manifest mirrors the slice of manifest.json we read.
type manifest struct {
	Nodes map[string]manifestNode `json:"nodes"`
}

type manifestNode struct {
	Name         string                    `json:"name"`
	ResourceType string                    `json:"resource_type"`
	Columns      map[string]manifestColumn `json:"columns"`
}

type manifestColumn struct {
	Name        string               `json:"name"`
	DataType    string               `json:"data_type"`
	Constraints []manifestConstraint `json:"constraints"`
}

type manifestConstraint struct {
	Type string `json:"type"`
}

func manifestModels(src []byte, path string) ([]model, error) {
	var doc manifest
	if err := json.Unmarshal(src, &doc); err != nil {
		return nil, errors.NewParse(Name, path, 0, err.Error())
	}
	var models []model
	for key, node := range doc.Nodes {
		if node.ResourceType != "" && node.ResourceType != "model" {
			continue
		}
		name := node.Name
		if name == "" {
			name = key
		}
		m := model{name: name}
		colNames := make([]string, 0, len(node.Columns))
		for cn := range node.Columns {
			colNames = append(colNames, cn)
		}
		sort.Strings(colNames)
		for _, cn := range colNames {
			col := node.Columns[cn]
			name := col.Name
			if name == "" {
				name = cn
			}
			required := false
			for _, c := range col.Constraints {
				if strings.EqualFold(c.Type, "not_null") {
					required = true
				}
			}
			m.columns = append(m.columns, column{name: name, dataType: col.DataType, required: required})
		}
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].name < models[j].name })
	return models, nil
}

// schemaFile mirrors the slice of schema.yml we read.
type schemaFile struct {
	Models []schemaModel `yaml:"models"`
}

type schemaModel struct {
	Name    string         `yaml:"name"`
	Columns []schemaColumn `yaml:"columns"`
}

type schemaColumn struct {
	Name        string       `yaml:"name"`
	DataType    string       `yaml:"data_type"`
	Tests       []yaml.Node  `yaml:"tests"`
	Constraints []constraint `yaml:"constraints"`
}

type constraint struct {
	Type string `yaml:"type"`
}

func schemaModels(src []byte, path string) ([]model, error) {
	var doc schemaFile
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, errors.NewParse(Name, path, 0, err.Error())
	}
	var models []model
	for _, sm := range doc.Models {
		if sm.Name == "" {
			continue
		}
		m := model{name: sm.Name}
		for _, sc := range sm.Columns {
			m.columns = append(m.columns, column{
				name:     sc.Name,
				dataType: sc.DataType,
				required: columnRequired(sc),
			})
		}
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].name < models[j].name })
	return models, nil
}

// columnRequired recognizes the two ways dbt spells a null check: a
// not_null entry under tests (bare string or mapping key) or a not_null
// constraint.
func columnRequired(c schemaColumn) bool {
	for _, cons := range c.Constraints {
		if strings.EqualFold(cons.Type, "not_null") {
			return true
		}
	}
	for _, n := range c.Tests {
		switch n.Kind {
		case yaml.ScalarNode:
			if n.Value == "not_null" {
				return true
			}
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				if n.Content[i].Value == "not_null" {
					return true
				}
			}
		}
	}
	return false
}

func selectModel(models []model, selector string) (model, error) {
	if selector == "" {
		return models[0], nil
	}
	var matches []model
	for _, m := range models {
		if strings.EqualFold(m.name, selector) {
			return m, nil
		}
		if strings.HasSuffix(strings.ToLower(m.name), "."+strings.ToLower(selector)) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return model{}, errors.NewSelector(selector, nil)
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.name
		}
		return model{}, errors.NewSelector(selector, names)
	}
}
