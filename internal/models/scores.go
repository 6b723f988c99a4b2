package models

// Scores is a point-in-time snapshot of the running match.
type Scores struct {
	Red  int `json:"red"`
	Blue int `json:"blue"`

	// Time is the elapsed match time in seconds.
	Time float64 `json:"time"`

	ScoreLimit int `json:"scoreLimit"`

	// TimeLimit is in seconds; 0 means no limit.
	TimeLimit float64 `json:"timeLimit"`
}

// Input is the bitmask of keys a player is holding.
type Input int

const (
	InputUp    Input = 1 << 0
	InputDown  Input = 1 << 1
	InputLeft  Input = 1 << 2
	InputRight Input = 1 << 3
	InputKick  Input = 1 << 4
)

func (in Input) Has(flag Input) bool {
	return in&flag != 0
}
