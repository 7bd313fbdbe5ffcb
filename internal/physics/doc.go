// Package physics provides the secondary-motion models driven by physics
// drivers:
//
//   - [Pendulum]: a rigid pendulum integrated in terms of its angle
//   - [SpringPendulum]: a bob on a damped spring, integrated in 2D
//
// Both read their physical constants from a [Params] every evaluation, so
// per-frame offsets applied by the driver take effect immediately. Neither
// ever produces a non-finite bob: failing terms are replaced by zero and a
// tagged diagnostic is reported.
//
// # Energy
//
// [Pendulum] implements [Hamiltonian] so runs can monitor energy drift:
//
//	if h, ok := model.(physics.Hamiltonian); ok {
//	    e := h.Energy()
//	}
package physics
