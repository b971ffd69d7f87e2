// Package car drives the mBot from human input and sensor feedback.
package car

import (
	"math"

	"github.com/robotalks/mbot.go/pkg/mbot"
	"github.com/robotalks/mbot.go/pkg/mbot/protocol"
)

// ObstacleAvoidance limits the forward speed by the distance d to the
// nearest obstacle. Backward motion, an unknown distance or a distance
// beyond distMax are not limited. Below distMin the speed is 0, in
// between it grows linearly from vMin to vMax.
func ObstacleAvoidance(direction float64, d mbot.Reading, distMin, distMax, vMin, vMax float64) float64 {
	switch {
	case direction < 0 || !d.Valid || d.Value > distMax:
		return vMax
	case d.Value < distMin:
		return 0
	case distMax <= distMin:
		return vMin
	}
	return vMin + (math.Min(d.Value, distMax)-distMin)*(vMax-vMin)/(distMax-distMin)
}

// DifferentialDrive converts direction and steering into wheel speeds.
// A larger curve turns less sharply. Speeds are rounded half away from
// zero and clamped to the range the firmware accepts.
func DifferentialDrive(direction, steering, speed, curve float64) (left, right int) {
	v := direction * speed
	left = protocol.ClampSpeed(int(math.Round(v * (1 - steering/curve))))
	right = protocol.ClampSpeed(int(math.Round(v * (1 + steering/curve))))
	return
}
