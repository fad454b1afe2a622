// Package geom holds the planar geometry the cadastral pipeline is built on:
// canonical parcel rings, edges and bearings, ray-casting containment, and a
// thin GEOS toolkit for buffers, intersections and unions.
//
// Coordinates are projected (easting, northing) in the survey's linear unit.
// Bearings are measured counter-clockwise from the positive x (east) axis and
// normalised to [0, 360).
package geom
