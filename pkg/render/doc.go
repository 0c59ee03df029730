// Package render draws a network's topology as a Graphviz diagram.
//
// # Overview
//
// [ToDOT] produces an undirected DOT graph with one node per bus. Buses of the
// same voltage region (connected without crossing a transformer) share a fill
// colour, transformers are drawn as bold labelled edges and reference sources
// as triangles attached to their bus. When an estimate table is supplied,
// each bus label carries its voltage guess.
//
//	dot := render.ToDOT(net, render.Options{Table: res.Table})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Formats
//
// [Render] dispatches on [Format]:
//
//   - dot: the DOT source itself
//   - svg: rendered in-process with [github.com/goccy/go-graphviz]
//   - pdf, png: the SVG converted with rsvg-convert from librsvg
//
// Out-of-service elements are drawn grey and dashed, open switches dash the
// branch they cut.
package render
