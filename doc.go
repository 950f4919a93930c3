// Package armcore plans and executes smooth 6-DOF robot arm motion.
//
// Motion between waypoints is planned with quintic polynomials, either
// directly in joint space or in Cartesian space with per-sample inverse
// kinematics. Planned trajectories are sampled at a fixed control period
// into time-ordered joint waypoints, which a control loop streams to the
// motor drivers through a hardware-generation specific dispatch strategy.
//
// The kinematic model and the low-level wire protocol are collaborators:
// the package defines the Kinematics and MotorBus interfaces and ships a
// Feetech serial bus implementation, but any backend satisfying those
// interfaces can be used.
package armcore
