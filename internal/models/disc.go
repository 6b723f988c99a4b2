package models

// DiscProperties is the full physical state of a simulated disc.
type DiscProperties struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	XSpeed   float64 `json:"xspeed"`
	YSpeed   float64 `json:"yspeed"`
	XGravity float64 `json:"xgravity"`
	YGravity float64 `json:"ygravity"`
	Radius   float64 `json:"radius"`
	BCoef    float64 `json:"bCoef"`
	InvMass  float64 `json:"invMass"`
	Damping  float64 `json:"damping"`

	// Color is 0xRRGGBB, or -1 for transparent.
	Color  int `json:"color"`
	CMask  int `json:"cMask"`
	CGroup int `json:"cGroup"`
}

// DiscPropertiesUpdate is a partial update: nil fields are left untouched.
type DiscPropertiesUpdate struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	XSpeed   *float64 `json:"xspeed,omitempty"`
	YSpeed   *float64 `json:"yspeed,omitempty"`
	XGravity *float64 `json:"xgravity,omitempty"`
	YGravity *float64 `json:"ygravity,omitempty"`
	Radius   *float64 `json:"radius,omitempty"`
	BCoef    *float64 `json:"bCoef,omitempty"`
	InvMass  *float64 `json:"invMass,omitempty"`
	Damping  *float64 `json:"damping,omitempty"`
	Color    *int     `json:"color,omitempty"`
	CMask    *int     `json:"cMask,omitempty"`
	CGroup   *int     `json:"cGroup,omitempty"`
}

// Apply returns d with every non-nil field of u written over it.
func (d DiscProperties) Apply(u DiscPropertiesUpdate) DiscProperties {
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setI := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setF(&d.X, u.X)
	setF(&d.Y, u.Y)
	setF(&d.XSpeed, u.XSpeed)
	setF(&d.YSpeed, u.YSpeed)
	setF(&d.XGravity, u.XGravity)
	setF(&d.YGravity, u.YGravity)
	setF(&d.Radius, u.Radius)
	setF(&d.BCoef, u.BCoef)
	setF(&d.InvMass, u.InvMass)
	setF(&d.Damping, u.Damping)
	setI(&d.Color, u.Color)
	setI(&d.CMask, u.CMask)
	setI(&d.CGroup, u.CGroup)
	return d
}

// IsEmpty reports whether the update would change nothing.
func (u DiscPropertiesUpdate) IsEmpty() bool {
	return u == DiscPropertiesUpdate{}
}

// Position returns the disc centre.
func (d DiscProperties) Position() Position {
	return Position{X: d.X, Y: d.Y}
}

// Float and Int build pointers for literal partial updates, e.g.
// DiscPropertiesUpdate{X: models.Float(5)}.
func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
