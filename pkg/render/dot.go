package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/voltseed/pkg/estimate"
	"github.com/matzehuels/voltseed/pkg/network"
	"github.com/matzehuels/voltseed/pkg/topology"
)

// Options configures diagram generation.
type Options struct {
	// Table adds the estimated voltage to each bus label. Nil draws the bare
	// topology.
	Table *estimate.Table

	// HideOutOfService omits out-of-service buses and the branches touching
	// them.
	HideOutOfService bool
}

// palette holds the region fill colours, reused cyclically.
var palette = []string{
	"#a6cee3", "#b2df8a", "#fdbf6f", "#cab2d6", "#fb9a99",
	"#ffff99", "#8dd3c7", "#bebada", "#fccde5", "#d9d9d9",
}

const offColor = "#eeeeee"

// ToDOT converts net to Graphviz DOT source.
func ToDOT(net *network.Network, opts Options) string {
	regions := regionColors(net)
	hidden := func(bus int) bool {
		if !opts.HideOutOfService {
			return false
		}
		b, ok := net.Bus(bus)
		return !ok || !b.InService
	}

	openLines, openTrafos := openBranches(net)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  label=%q;\n", net.Name)
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("\n")

	for _, b := range net.Buses {
		if hidden(b.ID) {
			continue
		}
		attrs := []string{fmt.Sprintf("label=%q", busLabel(b, opts.Table))}
		if color, ok := regions[b.ID]; ok {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", color))
		} else {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", offColor), "style=\"rounded,filled,dashed\"", "fontcolor=grey40")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", busNode(b.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, eg := range net.ExtGrids {
		if hidden(eg.Bus) {
			continue
		}
		id := "eg" + strconv.Itoa(eg.ID)
		label := fmt.Sprintf("%.3f pu\\n%.1f°", eg.VmPU, eg.VaDegree)
		attrs := []string{"shape=invtriangle", "style=filled", "fillcolor=\"#33a02c\"", "fontcolor=white", fmt.Sprintf("xlabel=\"%s\"", label), "label=\"\"", "width=0.4", "height=0.4"}
		edge := "[penwidth=2]"
		if !eg.InService {
			attrs[2] = fmt.Sprintf("fillcolor=%q", offColor)
			edge = "[style=dashed, color=grey60]"
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", id, strings.Join(attrs, ", "))
		fmt.Fprintf(&buf, "  %s -- %s %s;\n", id, busNode(eg.Bus), edge)
	}

	buf.WriteString("\n")
	for _, l := range net.Lines {
		if hidden(l.FromBus) || hidden(l.ToBus) {
			continue
		}
		attrs := []string{}
		if !l.InService || openLines[l.ID] {
			attrs = append(attrs, "style=dashed", "color=grey60")
		}
		fmt.Fprintf(&buf, "  %s -- %s%s;\n", busNode(l.FromBus), busNode(l.ToBus), fmtAttrs(attrs))
	}

	for _, t := range net.Transformers {
		if hidden(t.HVBus) || hidden(t.LVBus) {
			continue
		}
		label := fmt.Sprintf("T%d\\n%g/%g kV", t.ID, t.VnHVKV, t.VnLVKV)
		if s := t.Shift(); s != 0 {
			label += fmt.Sprintf("\\n%g°", s)
		}
		attrs := []string{"penwidth=3", fmt.Sprintf("label=\"%s\"", label)}
		if !t.InService || openTrafos[t.ID] {
			attrs = append(attrs, "style=dashed", "color=grey60")
		}
		fmt.Fprintf(&buf, "  %s -- %s%s;\n", busNode(t.HVBus), busNode(t.LVBus), fmtAttrs(attrs))
	}

	for _, s := range net.Switches {
		if s.Type != network.SwitchBus || hidden(s.Bus) || hidden(s.Element) {
			continue
		}
		style := "bold"
		if !s.Closed {
			style = "dotted"
		}
		fmt.Fprintf(&buf, "  %s -- %s [style=%s, color=grey30];\n", busNode(s.Bus), busNode(s.Element), style)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func busNode(id int) string { return "b" + strconv.Itoa(id) }

func busLabel(b network.Bus, t *estimate.Table) string {
	name := b.Name
	if name == "" {
		name = "bus " + strconv.Itoa(b.ID)
	}
	label := fmt.Sprintf("%s\n%g kV", name, b.VnKV)
	if t == nil {
		return label
	}
	if v, ok := t.Get(b.ID); ok {
		return label + fmt.Sprintf("\n%.4f pu ∠ %.2f°", v.VmPU, v.VaDegree)
	}
	return label + "\nunresolved"
}

func fmtAttrs(attrs []string) string {
	if len(attrs) == 0 {
		return ""
	}
	return " [" + strings.Join(attrs, ", ") + "]"
}

// regionColors maps every in-service bus to the fill colour of its region.
func regionColors(net *network.Network) map[int]string {
	g := topology.Build(net, topology.Options{})
	colors := make(map[int]string)
	for i, comp := range g.Components() {
		c := palette[i%len(palette)]
		for _, bus := range comp {
			colors[bus] = c
		}
	}
	return colors
}

func openBranches(net *network.Network) (lines, trafos map[int]bool) {
	lines, trafos = map[int]bool{}, map[int]bool{}
	for _, s := range net.Switches {
		if s.Closed {
			continue
		}
		switch s.Type {
		case network.SwitchLine:
			lines[s.Element] = true
		case network.SwitchTransformer:
			trafos[s.Element] = true
		}
	}
	return lines, trafos
}
