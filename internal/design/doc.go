// Package design models the visual design tree that figclass classifies.
//
// A design tree is decoded once at the boundary (Decode) into Node values.
// Every node carries a NodeType whose Class is the variant tag used by the
// rest of the pipeline: container, text, shape, image or unknown. Code that
// consumes nodes switches on the class instead of probing optional fields.
//
// Coordinates are relative to the parent node. Decode converts Figma REST
// style absoluteBoundingBox payloads into parent-relative values so both the
// plugin export and the REST export produce the same tree.
package design
