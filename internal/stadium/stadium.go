// Package stadium describes HaxBall stadium (.hbs) files: map geometry and the
// physics constants a room loads through SetCustomStadium.
package stadium

// Point is an [x, y] pair as written in stadium files.
type Point [2]float64

// Stadium is the top-level document.
type Stadium struct {
	Name          string  `json:"name"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	MaxViewWidth  float64 `json:"maxViewWidth,omitempty"`
	CameraFollow  string  `json:"cameraFollow,omitempty"`
	SpawnDistance float64 `json:"spawnDistance,omitempty"`
	CanBeStored   *bool   `json:"canBeStored,omitempty"`
	KickOffReset  string  `json:"kickOffReset,omitempty"`

	Bg     *Background      `json:"bg,omitempty"`
	Traits map[string]Trait `json:"traits,omitempty"`

	Vertexes []Vertex  `json:"vertexes,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
	Goals    []Goal    `json:"goals,omitempty"`
	Discs    []Disc    `json:"discs,omitempty"`
	Planes   []Plane   `json:"planes,omitempty"`
	Joints   []Joint   `json:"joints,omitempty"`

	RedSpawnPoints  []Point `json:"redSpawnPoints,omitempty"`
	BlueSpawnPoints []Point `json:"blueSpawnPoints,omitempty"`

	PlayerPhysics *PlayerPhysics `json:"playerPhysics,omitempty"`
	BallPhysics   *BallPhysics   `json:"ballPhysics,omitempty"`
}

// Background controls how the field is drawn; it has no physical effect.
type Background struct {
	Type          string  `json:"type,omitempty"`
	Width         float64 `json:"width,omitempty"`
	Height        float64 `json:"height,omitempty"`
	KickOffRadius float64 `json:"kickOffRadius,omitempty"`
	CornerRadius  float64 `json:"cornerRadius,omitempty"`
	GoalLine      float64 `json:"goalLine,omitempty"`
	Color         *Color  `json:"color,omitempty"`
}

// Trait is a named bundle of defaults that objects pull in with "trait".
type Trait struct {
	Vis     *bool    `json:"vis,omitempty"`
	BCoef   *float64 `json:"bCoef,omitempty"`
	Radius  *float64 `json:"radius,omitempty"`
	InvMass *float64 `json:"invMass,omitempty"`
	Damping *float64 `json:"damping,omitempty"`
	Color   *Color   `json:"color,omitempty"`
	CMask   []string `json:"cMask,omitempty"`
	CGroup  []string `json:"cGroup,omitempty"`
	Curve   *float64 `json:"curve,omitempty"`
	Bias    *float64 `json:"bias,omitempty"`
}

type Vertex struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	BCoef  *float64 `json:"bCoef,omitempty"`
	CMask  []string `json:"cMask,omitempty"`
	CGroup []string `json:"cGroup,omitempty"`
	Trait  string   `json:"trait,omitempty"`
}

// Segment joins vertexes V0 and V1. Curve is the arc angle in degrees; CurveF,
// when present, overrides it with the raw curvature factor used by asymmetric
// arcs.
type Segment struct {
	V0     int      `json:"v0"`
	V1     int      `json:"v1"`
	BCoef  *float64 `json:"bCoef,omitempty"`
	Curve  *float64 `json:"curve,omitempty"`
	CurveF *float64 `json:"curveF,omitempty"`
	Bias   *float64 `json:"bias,omitempty"`
	CMask  []string `json:"cMask,omitempty"`
	CGroup []string `json:"cGroup,omitempty"`
	Vis    *bool    `json:"vis,omitempty"`
	Color  *Color   `json:"color,omitempty"`
	Trait  string   `json:"trait,omitempty"`
}

type Goal struct {
	P0    Point  `json:"p0"`
	P1    Point  `json:"p1"`
	Team  string `json:"team"`
	Trait string `json:"trait,omitempty"`
}

type Plane struct {
	Normal Point    `json:"normal"`
	Dist   float64  `json:"dist"`
	BCoef  *float64 `json:"bCoef,omitempty"`
	CMask  []string `json:"cMask,omitempty"`
	CGroup []string `json:"cGroup,omitempty"`
	Trait  string   `json:"trait,omitempty"`
}

type Disc struct {
	Pos     *Point   `json:"pos,omitempty"`
	Speed   *Point   `json:"speed,omitempty"`
	Gravity *Point   `json:"gravity,omitempty"`
	Radius  *float64 `json:"radius,omitempty"`
	InvMass *float64 `json:"invMass,omitempty"`
	Damping *float64 `json:"damping,omitempty"`
	Color   *Color   `json:"color,omitempty"`
	BCoef   *float64 `json:"bCoef,omitempty"`
	CMask   []string `json:"cMask,omitempty"`
	CGroup  []string `json:"cGroup,omitempty"`
	Trait   string   `json:"trait,omitempty"`
}

type Joint struct {
	D0       int           `json:"d0"`
	D1       int           `json:"d1"`
	Length   JointLength   `json:"length"`
	Strength JointStrength `json:"strength"`
	Color    *Color        `json:"color,omitempty"`
}

type PlayerPhysics struct {
	Gravity             *Point   `json:"gravity,omitempty"`
	Radius              *float64 `json:"radius,omitempty"`
	InvMass             *float64 `json:"invMass,omitempty"`
	BCoef               *float64 `json:"bCoef,omitempty"`
	Damping             *float64 `json:"damping,omitempty"`
	CGroup              []string `json:"cGroup,omitempty"`
	Acceleration        *float64 `json:"acceleration,omitempty"`
	KickingAcceleration *float64 `json:"kickingAcceleration,omitempty"`
	KickingDamping      *float64 `json:"kickingDamping,omitempty"`
	KickStrength        *float64 `json:"kickStrength,omitempty"`
	Kickback            *float64 `json:"kickback,omitempty"`
}

// BallIsDisc0 reports whether the first entry of Discs doubles as the ball.
func (s *Stadium) BallIsDisc0() bool {
	return s.BallPhysics != nil && s.BallPhysics.Disc0
}

// DiscCount is the number of discs the room will hold once loaded: the stadium
// discs plus the implicit ball at index 0 unless ballPhysics is "disc0".
func (s *Stadium) DiscCount() int {
	if s.BallIsDisc0() {
		return len(s.Discs)
	}
	return len(s.Discs) + 1
}
