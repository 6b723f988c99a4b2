package stadium

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JointLengthKind tags the three ways a joint length can be given.
type JointLengthKind uint8

const (
	// LengthAuto uses the distance between the discs when the stadium loads.
	LengthAuto JointLengthKind = iota
	LengthFixed
	LengthRange
)

// JointLength is null/absent, a single number, or a [min, max] pair.
type JointLength struct {
	Kind JointLengthKind
	Min  float64
	Max  float64
}

func FixedLength(v float64) JointLength {
	return JointLength{Kind: LengthFixed, Min: v, Max: v}
}

func RangeLength(lo, hi float64) JointLength {
	return JointLength{Kind: LengthRange, Min: lo, Max: hi}
}

func (l JointLength) MarshalJSON() ([]byte, error) {
	switch l.Kind {
	case LengthAuto:
		return []byte("null"), nil
	case LengthFixed:
		return json.Marshal(l.Min)
	case LengthRange:
		return json.Marshal([2]float64{l.Min, l.Max})
	default:
		return nil, fmt.Errorf("stadium: unknown joint length kind %d", l.Kind)
	}
}

func (l *JointLength) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = JointLength{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var pair []float64
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("stadium: joint length range: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("stadium: joint length range has %d elements", len(pair))
		}
		if pair[0] > pair[1] {
			return fmt.Errorf("stadium: joint length range [%v, %v] is inverted", pair[0], pair[1])
		}
		*l = RangeLength(pair[0], pair[1])
		return nil
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("stadium: joint length: %w", err)
		}
		*l = FixedLength(v)
		return nil
	}
}

// JointStrength is "rigid" (the zero value) or a spring constant.
type JointStrength struct {
	Spring bool
	Value  float64
}

func (s JointStrength) MarshalJSON() ([]byte, error) {
	if !s.Spring {
		return []byte(`"rigid"`), nil
	}
	return json.Marshal(s.Value)
}

func (s *JointStrength) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str != "rigid" {
			return fmt.Errorf("stadium: joint strength %q", str)
		}
		*s = JointStrength{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("stadium: joint strength: %w", err)
	}
	*s = JointStrength{Spring: true, Value: v}
	return nil
}

// BallPhysics is either the literal "disc0", meaning the first stadium disc is
// the ball, or a disc description for a separate ball.
type BallPhysics struct {
	Disc0 bool
	Disc  *Disc
}

func (b BallPhysics) MarshalJSON() ([]byte, error) {
	if b.Disc0 {
		return []byte(`"disc0"`), nil
	}
	if b.Disc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b.Disc)
}

func (b *BallPhysics) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str != "disc0" {
			return fmt.Errorf("stadium: ballPhysics %q", str)
		}
		*b = BallPhysics{Disc0: true}
		return nil
	}
	var d Disc
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("stadium: ballPhysics: %w", err)
	}
	*b = BallPhysics{Disc: &d}
	return nil
}
