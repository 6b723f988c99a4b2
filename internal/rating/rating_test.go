package rating

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/hbroom/internal/database"
	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
)

func TestUpdateTeams1v1(t *testing.T) {
	now := time.Unix(100, 0)
	red, blue := UpdateTeams([]Rating{New("a", "ana")}, []Rating{New("b", "bo")}, 1, now)

	require.Len(t, red, 1)
	require.Len(t, blue, 1)
	assert.Greater(t, red[0].Rating, DefaultRating)
	assert.Less(t, blue[0].Rating, DefaultRating)
	assert.InDelta(t, red[0].Rating-DefaultRating, DefaultRating-blue[0].Rating, 1e-6)
	assert.Less(t, red[0].RD, DefaultRD)
	assert.Equal(t, 1, red[0].Games)
	assert.Equal(t, 1, red[0].Wins)
	assert.Equal(t, 0, blue[0].Wins)
	assert.Equal(t, now, blue[0].UpdatedAt)
}

func TestUpdateTeamsDrawBetweenEquals(t *testing.T) {
	red, blue := UpdateTeams([]Rating{New("a", "")}, []Rating{New("b", "")}, 0.5, time.Now())
	assert.InDelta(t, DefaultRating, red[0].Rating, 1e-6)
	assert.InDelta(t, DefaultRating, blue[0].Rating, 1e-6)
}

func TestUpdateTeamsUpsetMovesMore(t *testing.T) {
	strong := New("s", "")
	strong.Rating, strong.RD = 1800, 80
	weak := New("w", "")
	weak.Rating, weak.RD = 1400, 80

	expectedWin, _ := UpdateTeams([]Rating{strong}, []Rating{weak}, 1, time.Now())
	upset, _ := UpdateTeams([]Rating{strong}, []Rating{weak}, 0, time.Now())
	assert.Less(t, expectedWin[0].Rating-strong.Rating, strong.Rating-upset[0].Rating)
}

func TestUpdateTeamsOneSided(t *testing.T) {
	red := []Rating{New("a", "")}
	gotRed, gotBlue := UpdateTeams(red, nil, 1, time.Now())
	assert.Equal(t, red, gotRed)
	assert.Empty(t, gotBlue)
}

func testStores(t *testing.T) map[string]Store {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "ratings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlStore, err := NewSQLStore(db)
	require.NoError(t, err)
	return map[string]Store{"memory": NewMemoryStore(), "sqlite": sqlStore}
}

func TestStores(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r, err := store.Get(ctx, "nobody")
			require.NoError(t, err)
			assert.Nil(t, r)

			a, b, c := New("a", "ana"), New("b", "bo"), New("c", "cy")
			a.Rating, b.Rating, c.Rating = 1600, 1400, 1500
			a.UpdatedAt = time.UnixMilli(1700000000000).UTC()
			require.NoError(t, store.Save(ctx, []Rating{a, b, c}))

			a.Rating, a.Games = 1650, 3
			require.NoError(t, store.Save(ctx, []Rating{a}))

			got, err := store.Get(ctx, "a")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, 1650.0, got.Rating)
			assert.Equal(t, 3, got.Games)
			assert.Equal(t, a.UpdatedAt, got.UpdatedAt)

			top, err := store.Top(ctx, 2)
			require.NoError(t, err)
			require.Len(t, top, 2)
			assert.Equal(t, "a", top[0].Auth)
			assert.Equal(t, "c", top[1].Auth)

			all, err := store.Top(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestTrackerRatesVictory(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	store := NewMemoryStore()
	tr := NewTracker(store, log)
	rated := make(chan []Rating, 1)
	tr.rated = rated

	reg := events.NewRegistry()
	tr.Attach(reg)

	reg.Dispatch(events.PlayerJoin{Player: models.Player{ID: 1, Name: "ana", Auth: "auth-ana"}})
	reg.Dispatch(events.PlayerJoin{Player: models.Player{ID: 2, Name: "bo", Auth: "auth-bo"}})
	reg.Dispatch(events.PlayerJoin{Player: models.Player{ID: 3, Name: "guest"}})
	reg.Dispatch(events.PlayerTeamChange{ChangedPlayer: models.Player{ID: 1, Team: models.Red}})
	reg.Dispatch(events.PlayerTeamChange{ChangedPlayer: models.Player{ID: 2, Team: models.Blue}})
	reg.Dispatch(events.PlayerTeamChange{ChangedPlayer: models.Player{ID: 3, Team: models.Blue}})
	reg.Dispatch(events.GameStart{})
	reg.Dispatch(events.TeamVictory{Scores: models.Scores{Red: 1, Blue: 3}})
	reg.Dispatch(events.GameStop{})

	var batch []Rating
	select {
	case batch = <-rated:
	case <-time.After(2 * time.Second):
		t.Fatal("no ratings saved")
	}
	assert.Len(t, batch, 2)

	ana, err := tr.Lookup(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, ana)
	assert.Less(t, ana.Rating, DefaultRating)

	bo, err := store.Get(context.Background(), "auth-bo")
	require.NoError(t, err)
	require.NotNil(t, bo)
	assert.Greater(t, bo.Rating, DefaultRating)
	assert.Equal(t, 1, bo.Wins)

	guest, err := tr.Lookup(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, guest)
}

func TestTrackerSkipsOneSidedAndAbandoned(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	store := NewMemoryStore()
	tr := NewTracker(store, log)
	rated := make(chan []Rating, 1)
	tr.rated = rated

	reg := events.NewRegistry()
	tr.Attach(reg)

	reg.Dispatch(events.PlayerJoin{Player: models.Player{ID: 1, Name: "ana", Auth: "auth-ana"}})
	reg.Dispatch(events.PlayerTeamChange{ChangedPlayer: models.Player{ID: 1, Team: models.Red}})
	reg.Dispatch(events.GameStart{})
	reg.Dispatch(events.TeamVictory{Scores: models.Scores{Red: 3}})

	reg.Dispatch(events.PlayerJoin{Player: models.Player{ID: 2, Name: "bo", Auth: "auth-bo", Team: models.Blue}})
	reg.Dispatch(events.GameStart{})
	reg.Dispatch(events.GameStop{})
	reg.Dispatch(events.TeamVictory{Scores: models.Scores{Red: 3}})

	select {
	case <-rated:
		t.Fatal("unexpected rating update")
	case <-time.After(100 * time.Millisecond):
	}
	top, err := store.Top(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, top)
}
