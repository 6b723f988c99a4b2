package models

import "fmt"

// CollisionFlags is the table of bitmask constants the host supplies when the
// room is created. Stadium files refer to the flags by name.
type CollisionFlags struct {
	Ball   int `json:"ball"`
	Red    int `json:"red"`
	Blue   int `json:"blue"`
	RedKO  int `json:"redKO"`
	BlueKO int `json:"blueKO"`
	Wall   int `json:"wall"`
	All    int `json:"all"`
	Kick   int `json:"kick"`
	Score  int `json:"score"`
	C0     int `json:"c0"`
	C1     int `json:"c1"`
	C2     int `json:"c2"`
	C3     int `json:"c3"`
}

// DefaultCollisionFlags mirrors the values every published host build uses.
var DefaultCollisionFlags = CollisionFlags{
	Ball:   1,
	Red:    2,
	Blue:   4,
	RedKO:  8,
	BlueKO: 16,
	Wall:   32,
	All:    63,
	Kick:   64,
	Score:  128,
	C0:     1 << 28,
	C1:     1 << 29,
	C2:     1 << 30,
	C3:     1 << 31,
}

// Lookup returns the bit for a flag name as written in stadium files.
func (f CollisionFlags) Lookup(name string) (int, bool) {
	switch name {
	case "ball":
		return f.Ball, true
	case "red":
		return f.Red, true
	case "blue":
		return f.Blue, true
	case "redKO":
		return f.RedKO, true
	case "blueKO":
		return f.BlueKO, true
	case "wall":
		return f.Wall, true
	case "all":
		return f.All, true
	case "kick":
		return f.Kick, true
	case "score":
		return f.Score, true
	case "c0":
		return f.C0, true
	case "c1":
		return f.C1, true
	case "c2":
		return f.C2, true
	case "c3":
		return f.C3, true
	}
	return 0, false
}

// Mask ORs the named flags together.
func (f CollisionFlags) Mask(names ...string) (int, error) {
	mask := 0
	for _, n := range names {
		bit, ok := f.Lookup(n)
		if !ok {
			return 0, fmt.Errorf("unknown collision flag %q", n)
		}
		mask |= bit
	}
	return mask, nil
}

// IsZero reports whether the table was never filled in.
func (f CollisionFlags) IsZero() bool {
	return f == CollisionFlags{}
}
