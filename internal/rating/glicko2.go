// Package rating keeps Glicko-2 ratings for players identified by their
// public auth key and updates them when a team wins.
package rating

import (
	"math"
	"time"
)

const (
	// GlickoScale converts between the 1500-based scale and Glicko-2's mu.
	GlickoScale = 173.7178

	DefaultRating = 1500.0
	DefaultRD     = 350.0
	DefaultSigma  = 0.06

	// Tau constrains volatility changes.
	Tau     = 0.5
	Epsilon = 0.000001
)

// Rating is a player's standing on the 1500-based scale.
type Rating struct {
	Auth      string    `json:"auth"`
	Name      string    `json:"name"`
	Rating    float64   `json:"rating"`
	RD        float64   `json:"rd"`
	Sigma     float64   `json:"sigma"`
	Games     int       `json:"games"`
	Wins      int       `json:"wins"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New returns the starting rating for a player.
func New(auth, name string) Rating {
	return Rating{Auth: auth, Name: name, Rating: DefaultRating, RD: DefaultRD, Sigma: DefaultSigma}
}

type glicko struct {
	mu, phi, sigma float64
}

func (r Rating) glicko() glicko {
	return glicko{
		mu:    (r.Rating - DefaultRating) / GlickoScale,
		phi:   r.RD / GlickoScale,
		sigma: r.Sigma,
	}
}

func (r Rating) with(s glicko) Rating {
	r.Rating = s.mu*GlickoScale + DefaultRating
	r.RD = s.phi * GlickoScale
	r.Sigma = s.sigma
	return r
}

// UpdateTeams rates one match between red and blue. Every player is rated
// against the other team's average. redScore is 1 for a red win, 0 for a
// blue win and 0.5 for a draw.
func UpdateTeams(red, blue []Rating, redScore float64, now time.Time) (newRed, newBlue []Rating) {
	if len(red) == 0 || len(blue) == 0 {
		return red, blue
	}
	redOpp, blueOpp := average(blue), average(red)
	return rateSide(red, redOpp, redScore, now), rateSide(blue, blueOpp, 1-redScore, now)
}

func rateSide(side []Rating, opp glicko, score float64, now time.Time) []Rating {
	out := make([]Rating, len(side))
	for i, r := range side {
		r = r.with(update(r.glicko(), opp, score))
		r.Games++
		if score == 1 {
			r.Wins++
		}
		r.UpdatedAt = now
		out[i] = r
	}
	return out
}

// average is the team as a single opponent: mean mu, root mean square phi.
func average(team []Rating) glicko {
	var mu, phi2 float64
	for _, r := range team {
		g := r.glicko()
		mu += g.mu
		phi2 += g.phi * g.phi
	}
	n := float64(len(team))
	return glicko{mu: mu / n, phi: math.Sqrt(phi2 / n), sigma: DefaultSigma}
}

// update is a single-match Glicko-2 step for r against opp.
func update(r, opp glicko, score float64) glicko {
	gOpp := g(opp.phi)
	e := expected(r.mu, opp.mu, opp.phi)

	v := 1.0 / (gOpp * gOpp * e * (1 - e))
	delta := v * gOpp * (score - e)

	a := math.Log(r.sigma * r.sigma)
	fx := func(x float64) float64 {
		return volatility(x, r.phi, v, delta, a)
	}

	A := a
	var B float64
	if delta*delta > r.phi*r.phi+v {
		B = math.Log(delta*delta - r.phi*r.phi - v)
	} else {
		k := 1.0
		for fx(a-k*Tau) < 0 {
			k++
		}
		B = a - k*Tau
	}

	fA, fB := fx(A), fx(B)
	for i := 0; i < 100 && math.Abs(B-A) > Epsilon; i++ {
		C := A + (A-B)*fA/(fB-fA)
		fC := fx(C)
		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
	}

	sigma := math.Exp(A / 2)
	phiStar := math.Sqrt(r.phi*r.phi + sigma*sigma)
	phi := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	return glicko{
		mu:    r.mu + phi*phi*gOpp*(score-e),
		phi:   phi,
		sigma: sigma,
	}
}

func g(phi float64) float64 {
	return 1.0 / math.Sqrt(1.0+3.0*phi*phi/(math.Pi*math.Pi))
}

func expected(mu, oppMu, oppPhi float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(oppPhi)*(mu-oppMu)))
}

func volatility(x, phi, v, delta, a float64) float64 {
	ex := math.Exp(x)
	d := phi*phi + v + ex
	return ex*(delta*delta-phi*phi-v-ex)/(2*d*d) - (x-a)/(Tau*Tau)
}
