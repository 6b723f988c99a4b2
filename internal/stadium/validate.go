package stadium

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jason-s-yu/hbroom/internal/models"
)

// ValidationError points at one offending field.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}

// ValidationErrors collects every problem found in a stadium.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("stadium: %d problem(s): %s", len(v), strings.Join(msgs, "; "))
}

// Validate checks the structural rules the host enforces at load time, so a
// bad map can be rejected before it is sent. A nil return means valid. The
// returned error is always ValidationErrors.
func Validate(s *Stadium, flags models.CollisionFlags) error {
	if flags.IsZero() {
		flags = models.DefaultCollisionFlags
	}
	v := &validator{flags: flags, traits: s.Traits}

	if strings.TrimSpace(s.Name) == "" {
		v.add("name", "must not be empty")
	}
	if s.Width <= 0 {
		v.add("width", "must be positive")
	}
	if s.Height <= 0 {
		v.add("height", "must be positive")
	}
	switch s.CameraFollow {
	case "", "ball", "player":
	default:
		v.add("cameraFollow", fmt.Sprintf("unknown value %q", s.CameraFollow))
	}
	switch s.KickOffReset {
	case "", "partial", "full":
	default:
		v.add("kickOffReset", fmt.Sprintf("unknown value %q", s.KickOffReset))
	}
	if s.Bg != nil {
		switch s.Bg.Type {
		case "", "grass", "hockey", "none":
		default:
			v.add("bg.type", fmt.Sprintf("unknown value %q", s.Bg.Type))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(s.Traits)) {
		t := s.Traits[name]
		p := "traits." + name
		v.collision(p+".cMask", t.CMask)
		v.collision(p+".cGroup", t.CGroup)
		v.nonNegative(p+".radius", t.Radius)
	}

	for i, vx := range s.Vertexes {
		p := fmt.Sprintf("vertexes[%d]", i)
		v.trait(p, vx.Trait)
		v.collision(p+".cMask", vx.CMask)
		v.collision(p+".cGroup", vx.CGroup)
	}

	for i, seg := range s.Segments {
		p := fmt.Sprintf("segments[%d]", i)
		v.index(p+".v0", seg.V0, len(s.Vertexes), "vertexes")
		v.index(p+".v1", seg.V1, len(s.Vertexes), "vertexes")
		v.trait(p, seg.Trait)
		v.collision(p+".cMask", seg.CMask)
		v.collision(p+".cGroup", seg.CGroup)
	}

	for i, g := range s.Goals {
		p := fmt.Sprintf("goals[%d]", i)
		if g.Team != "red" && g.Team != "blue" {
			v.add(p+".team", fmt.Sprintf("must be red or blue, got %q", g.Team))
		}
		v.trait(p, g.Trait)
	}

	for i, pl := range s.Planes {
		p := fmt.Sprintf("planes[%d]", i)
		if pl.Normal[0] == 0 && pl.Normal[1] == 0 {
			v.add(p+".normal", "must not be the zero vector")
		}
		v.trait(p, pl.Trait)
		v.collision(p+".cMask", pl.CMask)
		v.collision(p+".cGroup", pl.CGroup)
	}

	for i, d := range s.Discs {
		v.disc(fmt.Sprintf("discs[%d]", i), d)
	}

	// Joint indices address the loaded disc list, which starts with the ball
	// unless ballPhysics is "disc0".
	discCount := s.DiscCount()
	for i, j := range s.Joints {
		p := fmt.Sprintf("joints[%d]", i)
		v.index(p+".d0", j.D0, discCount, "discs")
		v.index(p+".d1", j.D1, discCount, "discs")
		switch j.Length.Kind {
		case LengthAuto, LengthFixed:
		case LengthRange:
			if j.Length.Min > j.Length.Max {
				v.add(p+".length", "min exceeds max")
			}
		default:
			v.add(p+".length", "unknown length form")
		}
	}

	if s.BallPhysics != nil {
		if s.BallPhysics.Disc0 && len(s.Discs) == 0 {
			v.add("ballPhysics", `"disc0" requires at least one disc`)
		}
		if s.BallPhysics.Disc != nil {
			v.disc("ballPhysics", *s.BallPhysics.Disc)
		}
	}

	if s.PlayerPhysics != nil {
		v.collision("playerPhysics.cGroup", s.PlayerPhysics.CGroup)
		v.nonNegative("playerPhysics.radius", s.PlayerPhysics.Radius)
	}

	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

type validator struct {
	flags  models.CollisionFlags
	traits map[string]Trait
	errs   ValidationErrors
}

func (v *validator) add(path, msg string) {
	v.errs = append(v.errs, ValidationError{Path: path, Message: msg})
}

func (v *validator) index(path string, idx, n int, what string) {
	if idx < 0 || idx >= n {
		v.add(path, fmt.Sprintf("index %d out of range for %d %s", idx, n, what))
	}
}

func (v *validator) trait(path, name string) {
	if name == "" {
		return
	}
	if _, ok := v.traits[name]; !ok {
		v.add(path+".trait", fmt.Sprintf("unknown trait %q", name))
	}
}

func (v *validator) collision(path string, names []string) {
	for _, n := range names {
		if _, ok := v.flags.Lookup(n); !ok {
			v.add(path, fmt.Sprintf("unknown collision flag %q", n))
		}
	}
}

func (v *validator) nonNegative(path string, f *float64) {
	if f != nil && *f < 0 {
		v.add(path, "must not be negative")
	}
}

func (v *validator) disc(path string, d Disc) {
	v.trait(path, d.Trait)
	v.collision(path+".cMask", d.CMask)
	v.collision(path+".cGroup", d.CGroup)
	v.nonNegative(path+".radius", d.Radius)
	v.nonNegative(path+".invMass", d.InvMass)
}
