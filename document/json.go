package document

import (
	"encoding/json"

	"github.com/dhamidi/cif/value"
)

type jsonDocument struct {
	Blocks []*jsonBlock `json:"blocks"`
}

type jsonBlock struct {
	Code   string       `json:"code"`
	Items  []jsonItem   `json:"items,omitempty"`
	Loops  []*jsonLoop  `json:"loops,omitempty"`
	Frames []*jsonBlock `json:"frames,omitempty"`
}

type jsonItem struct {
	Name  string    `json:"name"`
	Value jsonValue `json:"value"`
}

type jsonLoop struct {
	Names   []string      `json:"names"`
	Packets [][]jsonValue `json:"packets"`
}

type jsonValue struct {
	Kind  string           `json:"kind"`
	Text  string           `json:"text,omitempty"`
	List  []jsonValue      `json:"list,omitempty"`
	Table []jsonTableEntry `json:"table,omitempty"`
}

// jsonTableEntry keeps table entries in insertion order; a Go map
// would shuffle them.
type jsonTableEntry struct {
	Key   string    `json:"key"`
	Value jsonValue `json:"value"`
}

func (d *Document) MarshalJSON() ([]byte, error) {
	jd := &jsonDocument{}
	for _, b := range d.blocks {
		jd.Blocks = append(jd.Blocks, blockToJSON(b))
	}
	return json.Marshal(jd)
}

func blockToJSON(b *Block) *jsonBlock {
	jb := &jsonBlock{Code: b.code}
	for _, name := range b.ItemNames() {
		v, _ := b.Item(name)
		jb.Items = append(jb.Items, jsonItem{Name: name, Value: valueToJSON(v)})
	}
	for _, l := range b.loops {
		jl := &jsonLoop{Names: l.names}
		for _, row := range l.packets {
			jrow := make([]jsonValue, len(row))
			for i, v := range row {
				jrow[i] = valueToJSON(v)
			}
			jl.Packets = append(jl.Packets, jrow)
		}
		jb.Loops = append(jb.Loops, jl)
	}
	for _, f := range b.frames {
		jb.Frames = append(jb.Frames, blockToJSON(f))
	}
	return jb
}

func valueToJSON(v value.Value) jsonValue {
	switch v.Kind() {
	case value.KindString:
		return jsonValue{Kind: "string", Text: v.Text()}
	case value.KindList:
		jv := jsonValue{Kind: "list"}
		for _, e := range v.List() {
			jv.List = append(jv.List, valueToJSON(e))
		}
		return jv
	case value.KindTable:
		jv := jsonValue{Kind: "table"}
		for _, k := range v.Table().Keys() {
			e, _ := v.Table().Get(k)
			jv.Table = append(jv.Table, jsonTableEntry{Key: k, Value: valueToJSON(e)})
		}
		return jv
	case value.KindNA:
		return jsonValue{Kind: "na"}
	default:
		return jsonValue{Kind: "unknown"}
	}
}
