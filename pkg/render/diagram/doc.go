// Package diagram renders remap results as Graphviz diagrams.
//
// # Overview
//
// Each source container is drawn on the left, each target container on the
// right, and every mapping as an arrow labelled with its scale factor.
// Mappings that failed are drawn dashed with the failure reason. With
// [Options.Detailed], the remapped layer subtree hangs below its target
// container with each layer's new rectangle.
//
// # Usage
//
//	dot := diagram.ToDOT(result.Payloads, failed, diagram.Options{Detailed: true})
//	svg, err := diagram.RenderSVG(dot)
//
// For PDF or PNG output:
//
//	pdf, err := diagram.RenderPDF(dot)
//	png, err := diagram.RenderPNG(dot, 2.0)  // 2x scale
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package diagram
