package main

import "fmt"

// partNames is the shop's robot catalog in the order the orders file indexes it (1-based).
var partNames = []string{
	"Roll-a-thor",
	"Peanut crusher",
	"D.A.V.E",
	"Andy Roid",
	"Spanner mate",
	"Drillbit 2000",
}

// PartLabel maps a 1-based catalog index to the robot's display name.
func PartLabel(index int) (string, error) {
	if index < 1 || index > len(partNames) {
		return "", fmt.Errorf("%w: %d (want 1-%d)", ErrInvalidPartIndex, index, len(partNames))
	}
	return partNames[index-1], nil
}

// HeadLabel returns the head dropdown option text for a catalog index.
func HeadLabel(index int) (string, error) {
	name, err := PartLabel(index)
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	return name + " head", nil
}

// BodyLabel returns the body radio label text for a catalog index.
func BodyLabel(index int) (string, error) {
	name, err := PartLabel(index)
	if err != nil {
		return "", fmt.Errorf("body: %w", err)
	}
	return name + " body", nil
}
