package armcore

import "github.com/pkg/errors"

var (
	// ErrDegenerateDuration is returned when a segment is planned with a
	// zero or negative duration.
	ErrDegenerateDuration = errors.New("segment duration must be positive")

	// ErrInsufficientWaypoints is returned when a plan is requested with
	// fewer than two waypoints.
	ErrInsufficientWaypoints = errors.New("at least two waypoints are required")

	// ErrInsufficientPoints is returned when sampling a trajectory yields
	// fewer than two accepted points.
	ErrInsufficientPoints = errors.New("fewer than two trajectory points were generated")

	// ErrNoSolution is returned when an inverse kinematics solution set is
	// empty.
	ErrNoSolution = errors.New("no inverse kinematics solution")

	// ErrNotPlanned is returned when trajectory points are requested before
	// a successful plan.
	ErrNotPlanned = errors.New("no trajectory has been planned")
)
