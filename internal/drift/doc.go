// Package drift undoes sea-ice drift between two overflights of the same
// floe.
//
// A point recorded by the moving platform at time t is matched, by its
// fractional position along the pass, to the moment the reference platform
// would have observed the same spot. The ice is assumed to travel with a
// constant velocity plus a fixed bias, so the point is shifted back by
// deltaT*velocity + bias. Its timestamp becomes t + deltaT.
package drift
