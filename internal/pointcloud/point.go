// Package pointcloud reads and writes the space-separated text records
// exported by the airborne laser scanner.
package pointcloud

// Point is one measured LiDAR return.
//
// T is GPS time in seconds. X and Y are planar coordinates in metres
// (east, north), Z is elevation in metres. C is the channel/classification
// code carried by green-laser exports; HasCode reports whether the record
// format supplied it.
type Point struct {
	C       int
	HasCode bool
	T       float64
	X       float64
	Y       float64
	Z       float64
}
