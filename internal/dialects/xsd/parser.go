// Package xsd converts XML Schema documents into the canonical type
// tree. Elements become fields, sequence/all/choice groups flatten into
// object fields, maxOccurs="unbounded" turns into an array, and
// minOccurs/nillable/use drive presence. XPath queries are written with
// local-name() so any namespace prefix works.
package xsd

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/SchemaScope/core/errors"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
	"github.com/FocuswithJustin/SchemaScope/internal/dialects"
)

// Name is the registry key for this dialect.
const Name = "xsd"

func init() {
	dialects.Register(&dialects.Dialect{
		Name:           Name,
		Extensions:     []string{".xsd"},
		ContentMarkers: []string{":schema", "<schema"},
		Parse:          Parse,
	})
}

// builtinKinds maps the local part of XSD builtin types to canonical
// kinds. Anything absent falls back to "any".
var builtinKinds = map[string]typetree.Kind{
	"string":             typetree.KindStr,
	"normalizedString":   typetree.KindStr,
	"token":              typetree.KindStr,
	"language":           typetree.KindStr,
	"anyURI":             typetree.KindStr,
	"QName":              typetree.KindStr,
	"ID":                 typetree.KindStr,
	"IDREF":              typetree.KindStr,
	"NCName":             typetree.KindStr,
	"base64Binary":       typetree.KindStr,
	"hexBinary":          typetree.KindStr,
	"byte":               typetree.KindInt,
	"short":              typetree.KindInt,
	"int":                typetree.KindInt,
	"integer":            typetree.KindInt,
	"long":               typetree.KindInt,
	"negativeInteger":    typetree.KindInt,
	"nonNegativeInteger": typetree.KindInt,
	"nonPositiveInteger": typetree.KindInt,
	"positiveInteger":    typetree.KindInt,
	"unsignedByte":       typetree.KindInt,
	"unsignedShort":      typetree.KindInt,
	"unsignedInt":        typetree.KindInt,
	"unsignedLong":       typetree.KindInt,
	"decimal":            typetree.KindFloat,
	"double":             typetree.KindFloat,
	"float":              typetree.KindFloat,
	"boolean":            typetree.KindBool,
	"date":               typetree.KindDate,
	"time":               typetree.KindTime,
	"dateTime":           typetree.KindTimestamp,
}

// index holds the named definitions of one schema document.
type index struct {
	complexTypes map[string]*xmlquery.Node
	simpleTypes  map[string]*xmlquery.Node
	elements     map[string]*xmlquery.Node
}

// Parse reads an XSD document and builds the tree rooted at one global
// element, chosen by Options.Selector or lexicographically.
func Parse(src []byte, opts dialects.Options) (*dialects.Result, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, errors.NewParse(Name, opts.Path, 0, err.Error())
	}
	schema := xmlquery.FindOne(doc, "//*[local-name()='schema']")
	if schema == nil {
		return nil, errors.NewParse(Name, opts.Path, 0, "no schema element found")
	}

	idx := &index{
		complexTypes: map[string]*xmlquery.Node{},
		simpleTypes:  map[string]*xmlquery.Node{},
		elements:     map[string]*xmlquery.Node{},
	}
	for child := schema.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		name := child.SelectAttr("name")
		if name == "" {
			continue
		}
		switch localName(child) {
		case "complexType":
			idx.complexTypes[name] = child
		case "simpleType":
			idx.simpleTypes[name] = child
		case "element":
			idx.elements[name] = child
		}
	}
	if len(idx.elements) == 0 {
		return nil, errors.NewParse(Name, opts.Path, 0, "no global elements found")
	}

	name, el, err := selectElement(idx.elements, opts.Selector)
	if err != nil {
		return nil, err
	}

	required := typetree.NewPathSet()
	node := idx.elementNode(el, "", required, map[string]bool{})
	obj, ok := node.(typetree.Object)
	if !ok {
		obj = typetree.NewObject(typetree.Field{Name: "value", Type: node})
		required = typetree.NewPathSet()
	}
	return &dialects.Result{Root: obj, Required: required, Label: name}, nil
}

func selectElement(elements map[string]*xmlquery.Node, selector string) (string, *xmlquery.Node, error) {
	names := make([]string, 0, len(elements))
	for name := range elements {
		names = append(names, name)
	}
	sort.Strings(names)
	if selector == "" {
		return names[0], elements[names[0]], nil
	}
	for _, name := range names {
		if strings.EqualFold(name, selector) {
			return name, elements[name], nil
		}
	}
	return "", nil, errors.NewSelector(selector, nil)
}

// elementNode resolves the type of one element declaration. seen guards
// against recursive named types, which collapse to the opaque object
// scalar.
func (idx *index) elementNode(el *xmlquery.Node, prefix string, required typetree.PathSet, seen map[string]bool) typetree.Node {
	if inline := firstChild(el, "complexType"); inline != nil {
		return idx.complexNode(inline, prefix, required, seen)
	}
	if inline := firstChild(el, "simpleType"); inline != nil {
		return typetree.NewScalar(idx.simpleKind(inline, seen))
	}
	return idx.typeRef(el.SelectAttr("type"), prefix, required, seen)
}

func (idx *index) typeRef(ref, prefix string, required typetree.PathSet, seen map[string]bool) typetree.Node {
	local := localPart(ref)
	if local == "" {
		return typetree.NewScalar(typetree.KindAny)
	}
	if k, ok := builtinKinds[local]; ok {
		return typetree.NewScalar(k)
	}
	if ct, ok := idx.complexTypes[local]; ok {
		if seen[local] {
			return typetree.NewScalar(typetree.KindObject)
		}
		seen[local] = true
		defer delete(seen, local)
		return idx.complexNode(ct, prefix, required, seen)
	}
	if st, ok := idx.simpleTypes[local]; ok {
		return typetree.NewScalar(idx.simpleKind(st, seen))
	}
	return typetree.NewScalar(typetree.KindAny)
}

// complexNode flattens a complexType into an object. Field order
// follows the document; canonical equality sorts fields anyway.
func (idx *index) complexNode(ct *xmlquery.Node, prefix string, required typetree.PathSet, seen map[string]bool) typetree.Node {
	var fields []typetree.Field
	idx.collectFields(ct, prefix, false, &fields, required, seen)
	return typetree.NewObject(fields...)
}

// collectFields walks a content model. inChoice suppresses presence:
// a choice member is never guaranteed to occur.
func (idx *index) collectFields(n *xmlquery.Node, prefix string, inChoice bool, fields *[]typetree.Field, required typetree.PathSet, seen map[string]bool) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		switch localName(child) {
		case "sequence", "all":
			idx.collectFields(child, prefix, inChoice, fields, required, seen)
		case "choice":
			idx.collectFields(child, prefix, true, fields, required, seen)
		case "complexContent", "simpleContent", "extension", "restriction":
			idx.collectFields(child, prefix, inChoice, fields, required, seen)
		case "element":
			name := child.SelectAttr("name")
			if name == "" {
				continue
			}
			path := typetree.JoinPath(prefix, name)
			node := idx.elementNode(child, path, required, seen)
			if repeated(child) {
				node = typetree.NewArray(node)
			}
			*fields = append(*fields, typetree.Field{Name: name, Type: node})
			if !inChoice && elementRequired(child) {
				required.Add(path)
			}
		case "attribute":
			name := child.SelectAttr("name")
			if name == "" {
				continue
			}
			path := typetree.JoinPath(prefix, name)
			*fields = append(*fields, typetree.Field{
				Name: name,
				Type: idx.typeRef(child.SelectAttr("type"), path, required, seen),
			})
			if child.SelectAttr("use") == "required" {
				required.Add(path)
			}
		}
	}
}

func repeated(el *xmlquery.Node) bool {
	max := el.SelectAttr("maxOccurs")
	if max == "unbounded" {
		return true
	}
	if n, err := strconv.Atoi(max); err == nil && n > 1 {
		return true
	}
	return false
}

func elementRequired(el *xmlquery.Node) bool {
	if el.SelectAttr("minOccurs") == "0" {
		return false
	}
	if el.SelectAttr("nillable") == "true" {
		return false
	}
	return true
}

// simpleKind follows a simpleType restriction to its base builtin.
func (idx *index) simpleKind(st *xmlquery.Node, seen map[string]bool) typetree.Kind {
	restriction := firstChild(st, "restriction")
	if restriction == nil {
		return typetree.KindStr
	}
	base := localPart(restriction.SelectAttr("base"))
	if k, ok := builtinKinds[base]; ok {
		return k
	}
	if next, ok := idx.simpleTypes[base]; ok && !seen[base] {
		seen[base] = true
		defer delete(seen, base)
		return idx.simpleKind(next, seen)
	}
	return typetree.KindStr
}

func localName(n *xmlquery.Node) string {
	return n.Data
}

func localPart(ref string) string {
	if i := strings.LastIndexByte(ref, ':'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func firstChild(n *xmlquery.Node, local string) *xmlquery.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && localName(child) == local {
			return child
		}
	}
	return nil
}
