// Package pkg provides the core libraries for layermap container remapping.
//
// # Overview
//
// Layermap moves the layers inside one named container of a layered image
// document into another container, usually of a different document with a
// different layout. Containers are rectangles defined by the children of a
// reserved "!!TEMPLATE" group; the design content for a container is the
// top-level group whose name matches it.
//
// # Architecture
//
// The data flow through layermap:
//
//	PSD / JSON document
//	         ↓
//	    [document] package (opaque tree, codecs, path lookup)
//	         ↓
//	    [layer] + [template] packages (serializable layers, containers)
//	         ↓
//	    [resolve] package (container name → design group)
//	         ↓
//	    [remap] package (scale + anchor + overrides into target space)
//	         ↓
//	    [reconstruct] package (target-shaped document tree)
//
// [pipeline] runs these stages with caching for both the CLI and the HTTP
// API. [strategy] parses layout strategies and fetches them from providers;
// [validate] reports layers that escape their containers.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, "design.psd", "template.json", pipeline.Options{
//	    Mappings: []pipeline.Mapping{{Source: "!!HEADER", Target: "!!BANNER"}},
//	})
//	if err != nil {
//	    return err
//	}
//	for _, f := range result.Failures {
//	    logger.Warn("mapping failed", "mapping", f.Mapping, "error", f.Message)
//	}
//	return document.WriteFile(result.Tree, "out.json", document.JSONCodec{})
//
// # Infrastructure
//
//   - [cache]: Null, file and Redis backends for decoded documents and remaps
//   - [store]: document registry for the API server (memory or MongoDB)
//   - [observability]: pipeline, cache and HTTP hooks; Prometheus metrics
//   - [render/diagram]: Graphviz diagrams of a set of mappings
//   - [errors]: error codes shared by the CLI and the API
package pkg
