// Package layer provides the lightweight layer model the engine computes on.
//
// [FromDocument] turns opaque document nodes into [Layer] values annotated
// with path identities; the remap package produces [Transformed] layers from
// them. Geometry is expressed with [Rect] in document pixels and
// [NormalizedRect] relative to a [Canvas].
package layer
