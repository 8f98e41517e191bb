// Package voxel owns the lattice layer of the plant data model.
//
// Responsibilities: integer voxel positions, voxel sets, base-to-tip
// polylines and the occupied-voxel adjacency graph.
// Key types: Position, Set, Polyline, Graph.
//
// Dependency rule: voxel depends on nothing else in this module.
// The graph is an arena: every occupied position gets a stable int32 index
// assigned in (Z, Y, X) order, and adjacency is stored as index lists.
package voxel
