// Package document defines the opaque layered-document tree that layermap
// reads from and writes back to.
//
// A [Tree] is a canvas plus an ordered list of [Node] children. Nodes carry
// only what the engine needs (name, edge coordinates, visibility, opacity and
// hierarchy) plus two pass-through fields: Payload for pixel data and Extra
// for codec-specific properties. Neither is ever inspected.
//
// # Codecs
//
// Bytes are converted to trees by a [Codec]:
//
//	t, err := document.ReadFile("design.json", document.JSONCodec{})
//	data, err := document.JSONCodec{}.Serialize(t)
//
// The psd subpackage provides a read-only decoder for Photoshop files.
//
// # Path Identities
//
// Layers derived from a tree are identified by the dotted sibling-index route
// from the root ("layer-0.2.1"). [FindByPath] walks that route back into the
// tree. Paths are an arena index: they stay valid only while sibling order is
// unchanged, and a lookup miss is an ordinary outcome. [Tree.Fingerprint]
// summarizes the structure so callers can detect that paths went stale.
package document
