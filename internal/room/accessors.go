package room

import "github.com/jason-s-yu/hbroom/internal/models"

// Accessors read the mirror of the last state the bridge reported. They never
// block on the network. A missing player or disc is reported as nil, which is
// ordinary and not an error. After Close every accessor returns nil or empty.

func (r *Room) GetPlayer(playerID int) *models.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.mirror.playerIndex(playerID)
	if i < 0 {
		return nil
	}
	p := r.mirror.players[i].Clone()
	return &p
}

func (r *Room) GetPlayerList() []models.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]models.Player, len(r.mirror.players))
	for i, p := range r.mirror.players {
		list[i] = p.Clone()
	}
	return list
}

// GetScores is nil when no game is in progress.
func (r *Room) GetScores() *models.Scores {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.mirror.scores == nil {
		return nil
	}
	s := *r.mirror.scores
	return &s
}

// GetBallPosition is nil when no game is in progress.
func (r *Room) GetBallPosition() *models.Position {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.mirror.game == GameStopped || len(r.mirror.discs) == 0 {
		return nil
	}
	pos := r.mirror.discs[0].Position()
	return &pos
}

func (r *Room) GetDiscProperties(discIndex int) *models.DiscProperties {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if discIndex < 0 || discIndex >= len(r.mirror.discs) {
		return nil
	}
	d := r.mirror.discs[discIndex]
	return &d
}

func (r *Room) GetPlayerDiscProperties(playerID int) *models.DiscProperties {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.mirror.playerDiscs[playerID]
	if !ok {
		return nil
	}
	return &d
}

func (r *Room) GetDiscCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mirror.discs)
}

// GetPlayerInput returns the keys the player is holding; ok is false for an
// unknown player.
func (r *Room) GetPlayerInput(playerID int) (in models.Input, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.mirror.playerIndex(playerID) < 0 {
		return 0, false
	}
	return r.mirror.inputs[playerID], true
}
