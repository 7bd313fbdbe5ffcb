// Package dynamo provides the numeric primitives shared by the physics
// models.
//
//   - [State]: flat vector of scalar state variables
//   - [System]: an ODE right-hand side dX/dt = f(X, t)
//   - finite-value helpers used by the guards in the models
//
// # Thread Safety
//
// Nothing here holds shared state; values are owned by the caller.
package dynamo
