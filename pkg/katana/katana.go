// Package katana serializes mapped networks as Katana XML interchange
// documents. The output is what Katana's node graph accepts on paste: a
// <katana> root wrapping a single exported Group node whose children carry
// positions, color hints, ports, and a parameter tree.
package katana

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/lookdevkit/shaderbridge/pkg/errors"
	"github.com/lookdevkit/shaderbridge/pkg/layout"
	"github.com/lookdevkit/shaderbridge/pkg/mapping"
	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

// Interchange format constants. The release pair identifies the oldest
// Katana version whose paste handler understands the document.
const (
	Release   = "2.5v4"
	Version   = "2.5.1.000001"
	GroupName = "__SAVE_exportedNodes"
)

// Document is the complete interchange document.
type Document struct {
	XMLName xml.Name `xml:"katana"`
	Release string   `xml:"release,attr"`
	Version string   `xml:"version,attr"`
	Group   Group    `xml:"node"`
}

// Group is the exported Group node enclosing the converted network.
type Group struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr"`
	Ports []Port `xml:"port"`
	Nodes []Node `xml:"node"`
}

// Port declares a connection point. Source is set on input ports and on
// group ports that re-export an inner node's output.
type Port struct {
	Name   string `xml:"name,attr"`
	Type   string `xml:"type,attr"`
	Source string `xml:"source,attr,omitempty"`
}

// Node is one shading node of the exported group.
type Node struct {
	Name     string     `xml:"name,attr"`
	Type     string     `xml:"type,attr"`
	X        int        `xml:"x,attr"`
	Y        int        `xml:"y,attr"`
	NSColorR string     `xml:"ns_colorr,attr,omitempty"`
	NSColorG string     `xml:"ns_colorg,attr,omitempty"`
	NSColorB string     `xml:"ns_colorb,attr,omitempty"`
	Ports    []Port     `xml:"port"`
	Params   GroupParam `xml:"group_parameter"`
}

// GroupParam is a group_parameter element.
type GroupParam struct {
	Name    string        `xml:"name,attr"`
	Strings []StringParam `xml:"string_parameter"`
	Numbers []NumberParam `xml:"number_parameter"`
	Arrays  []ArrayParam  `xml:"numberarray_parameter"`
	Groups  []GroupParam  `xml:"group_parameter"`
}

// StringParam is a string_parameter element.
type StringParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// NumberParam is a number_parameter element.
type NumberParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ArrayParam is a numberarray_parameter with i0..iN children.
type ArrayParam struct {
	Name   string        `xml:"name,attr"`
	Size   int           `xml:"size,attr"`
	Values []NumberParam `xml:"number_parameter"`
}

// Serialize builds the document for a mapped and laid-out network.
func Serialize(tg *mapping.TargetGraph, pos layout.Positions) (*Document, error) {
	doc := &Document{
		Release: Release,
		Version: Version,
		Group: Group{
			Name: GroupName,
			Type: "Group",
		},
	}
	for _, gp := range tg.Ports {
		doc.Group.Ports = append(doc.Group.Ports, Port{
			Name:   gp.Name,
			Type:   "out",
			Source: gp.Source,
		})
	}
	for _, tn := range tg.Nodes() {
		node, err := serializeNode(tn, pos[tn.ID])
		if err != nil {
			return nil, err
		}
		doc.Group.Nodes = append(doc.Group.Nodes, node)
	}
	return doc, nil
}

func serializeNode(tn *mapping.TargetNode, p layout.Point) (Node, error) {
	node := Node{
		Name: tn.ID,
		Type: tn.Type,
		X:    p.X,
		Y:    p.Y,
	}
	if tn.Color != nil {
		node.NSColorR = formatFloat(tn.Color[0])
		node.NSColorG = formatFloat(tn.Color[1])
		node.NSColorB = formatFloat(tn.Color[2])
	}

	node.Ports = append(node.Ports, Port{Name: "out", Type: "out"})
	for _, in := range tn.Inputs {
		node.Ports = append(node.Ports, Port{
			Name:   in.Port,
			Type:   "in",
			Source: in.FromID + "." + in.FromPort,
		})
	}

	params := GroupParam{Name: "parameters"}
	for _, p := range tn.Params {
		pg, err := serializeParam(p)
		if err != nil {
			return Node{}, errors.Wrap(errors.ErrCodeInternal, err,
				"node %s parameter %s", tn.ID, p.Name)
		}
		params.Groups = append(params.Groups, pg)
	}

	node.Params = GroupParam{
		Name:    tn.ID,
		Strings: []StringParam{{Name: "name", Value: tn.ID}},
		Groups:  []GroupParam{params},
	}
	return node, nil
}

// serializeParam emits one parameter group: always enabled, since only
// values that differ from the source defaults survive mapping.
func serializeParam(p mapping.Param) (GroupParam, error) {
	pg := GroupParam{
		Name:    p.Name,
		Numbers: []NumberParam{{Name: "enable", Value: "1"}},
	}
	switch p.Value.Kind {
	case scene.KindNumber:
		pg.Numbers = append(pg.Numbers, NumberParam{
			Name:  "value",
			Value: formatFloat(p.Value.Num),
		})
	case scene.KindString, scene.KindEnum:
		pg.Strings = []StringParam{{Name: "value", Value: p.Value.Str}}
	case scene.KindColor:
		arr := ArrayParam{Name: "value", Size: len(p.Value.Color)}
		for i, c := range p.Value.Color {
			arr.Values = append(arr.Values, NumberParam{
				Name:  "i" + strconv.Itoa(i),
				Value: formatFloat(c),
			})
		}
		pg.Arrays = []ArrayParam{arr}
	default:
		return GroupParam{}, fmt.Errorf("unsupported value kind %s", p.Value.Kind)
	}
	return pg, nil
}

// formatFloat renders numbers the way the target parses them back:
// shortest representation that round-trips.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Write renders the document to w with the XML header.
func (d *Document) Write(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(d); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	return enc.Close()
}

// Bytes renders the document to a byte slice.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
