package typetree

import (
	"encoding/json"
	"fmt"
)

// wireNode is the JSON wire form of a Node. Exactly one of the variant
// fields is set.
type wireNode struct {
	Scalar  string      `json:"scalar,omitempty"`
	Array   *wireNode   `json:"array,omitempty"`
	Unknown bool        `json:"unknown,omitempty"`
	Object  []wireField `json:"object,omitempty"`
	Union   []wireNode  `json:"union,omitempty"`

	// emptyObject disambiguates Object{} from a scalar: encoding/json drops
	// empty slices under omitempty.
	EmptyObject bool `json:"empty_object,omitempty"`
}

type wireField struct {
	Name string   `json:"name"`
	Type wireNode `json:"type"`
}

func toWire(n Node) wireNode {
	switch v := n.(type) {
	case Scalar:
		return wireNode{Scalar: string(v.Kind)}
	case Array:
		if v.Unknown || v.Elem == nil {
			return wireNode{Array: &wireNode{}, Unknown: true}
		}
		elem := toWire(v.Elem)
		return wireNode{Array: &elem}
	case Object:
		if len(v.Fields) == 0 {
			return wireNode{EmptyObject: true}
		}
		fields := make([]wireField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = wireField{Name: f.Name, Type: toWire(f.Type)}
		}
		return wireNode{Object: fields}
	case Union:
		members := make([]wireNode, len(v.Members))
		for i, m := range v.Members {
			members[i] = toWire(m)
		}
		return wireNode{Union: members}
	}
	return wireNode{Scalar: string(KindAny)}
}

func fromWire(w wireNode) (Node, error) {
	switch {
	case w.Scalar != "":
		k := Kind(w.Scalar)
		if !k.IsValid() {
			return nil, fmt.Errorf("unknown scalar kind %q", w.Scalar)
		}
		return Scalar{Kind: k}, nil
	case w.Array != nil:
		if w.Unknown {
			return Array{Unknown: true}, nil
		}
		elem, err := fromWire(*w.Array)
		if err != nil {
			return nil, err
		}
		return Array{Elem: elem}, nil
	case w.EmptyObject:
		return Object{}, nil
	case len(w.Object) > 0:
		fields := make([]Field, len(w.Object))
		for i, f := range w.Object {
			t, err := fromWire(f.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = Field{Name: f.Name, Type: t}
		}
		return Object{Fields: fields}, nil
	case len(w.Union) > 0:
		members := make([]Node, len(w.Union))
		for i, m := range w.Union {
			t, err := fromWire(m)
			if err != nil {
				return nil, err
			}
			members[i] = t
		}
		return canonicalizeUnion(members), nil
	}
	return nil, fmt.Errorf("empty wire node")
}

// MarshalNode encodes a tree as JSON.
func MarshalNode(n Node) ([]byte, error) {
	if n == nil {
		n = Scalar{Kind: KindAny}
	}
	return json.Marshal(toWire(n))
}

// UnmarshalNode decodes a tree from JSON.
func UnmarshalNode(data []byte) (Node, error) {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return fromWire(w)
}
