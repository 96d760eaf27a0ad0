// Package retawny implements the core of an orthomosaic blender: it
// stitches a set of georeferenced raster tiles into a single seamless
// composite using a dual-mask multi-band (Laplacian pyramid) compositor
// fed by a Voronoi-constrained mask generator.
//
// The pipeline runs in four stages, leaves first: the metadata resolver
// parses world files and derives canvas placement, the mask generator
// produces per-tile Voronoi ownership masks, the coverage mask builder
// turns loaded or generated masks into the blender's weight and blend
// masks, and the dual-mask blender accumulates tiles into the final
// canvas. Pipeline ties all four together.
//
// It ships with a command line program (cmd/orthoblend) that drives the
// whole pipeline against a directory of TIFF tiles and world files.
package retawny
