package geo

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name  string
		a, b  domain.Point
		want  float64
		delta float64
	}{
		{name: "same point", a: domain.Point{Lat: 18.5, Lng: -69.9}, b: domain.Point{Lat: 18.5, Lng: -69.9}, want: 0, delta: 1e-9},
		{name: "one degree of longitude at equator", a: domain.Point{}, b: domain.Point{Lng: 1}, want: 111.195, delta: 0.01},
		{name: "london to new york", a: domain.Point{Lat: 51.5007, Lng: -0.1246}, b: domain.Point{Lat: 40.6892, Lng: -74.0445}, want: 5574.84, delta: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), tt.delta)
			assert.InDelta(t, Distance(tt.a, tt.b), Distance(tt.b, tt.a), 1e-9)
		})
	}
}

func TestNearestBranch_SantoDomingo(t *testing.T) {
	user := &domain.UserLocation{Lat: 18.486, Lng: -69.931}
	branches := []domain.Branch{
		{ID: 1, ProviderID: 7, Name: "Naco", Lat: 18.50, Lng: -69.95},
		{ID: 2, ProviderID: 7, Name: "Ozama", Lat: 18.47, Lng: -69.89},
		{ID: 3, ProviderID: 8, Name: "Other provider", Lat: 18.486, Lng: -69.931},
	}

	assert.InDelta(t, 2.537, Distance(user.Point(), branches[0].Point()), 0.01)
	assert.InDelta(t, 4.676, Distance(user.Point(), branches[1].Point()), 0.01)

	got, err := NearestBranch(user, 7, branches)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Branch.ID)
	assert.InDelta(t, 2.537, got.DistanceKm, 0.01)
}

func TestNearestBranch_TieGoesToLowerID(t *testing.T) {
	user := &domain.UserLocation{Lat: 0, Lng: 0}
	branches := []domain.Branch{
		{ID: 9, ProviderID: 1, Lat: 0, Lng: 1},
		{ID: 4, ProviderID: 1, Lat: 0, Lng: -1},
		{ID: 6, ProviderID: 1, Lat: 1, Lng: 0},
	}

	got, err := NearestBranch(user, 1, branches)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Branch.ID)
}

func TestNearestBranch_NotFound(t *testing.T) {
	branches := []domain.Branch{{ID: 1, ProviderID: 2, Lat: 1, Lng: 1}}

	_, err := NearestBranch(&domain.UserLocation{}, 3, branches)
	assert.True(t, errors.Is(err, constants.ErrBranchNotFound))

	_, err = NearestBranch(nil, 2, branches)
	assert.True(t, errors.Is(err, constants.ErrBranchNotFound))

	_, err = NearestBranch(&domain.UserLocation{}, 2, nil)
	assert.True(t, errors.Is(err, constants.ErrBranchNotFound))
}

func TestNearestBranch_FarAwayIsAccepted(t *testing.T) {
	got, err := NearestBranch(&domain.UserLocation{Lat: 18.48, Lng: -69.93}, 1, []domain.Branch{
		{ID: 1, ProviderID: 1, Lat: -33.86, Lng: 151.21},
	})
	require.NoError(t, err)
	assert.Greater(t, got.DistanceKm, 10000.0)
}

func TestNearestBranch_Minimality(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	for round := 0; round < 100; round++ {
		user := &domain.UserLocation{Lat: rnd.Float64()*180 - 90, Lng: rnd.Float64()*360 - 180}

		var branches []domain.Branch
		for i := 0; i < 1+rnd.Intn(10); i++ {
			branches = append(branches, domain.Branch{
				ID:         int64(i + 1),
				ProviderID: int64(1 + rnd.Intn(2)),
				Lat:        rnd.Float64()*180 - 90,
				Lng:        rnd.Float64()*360 - 180,
			})
		}

		got, err := NearestBranch(user, 1, branches)
		if err != nil {
			assert.True(t, errors.Is(err, constants.ErrBranchNotFound))
			continue
		}

		for _, b := range branches {
			if b.ProviderID != 1 {
				continue
			}
			assert.LessOrEqual(t, got.DistanceKm, Distance(user.Point(), b.Point()))
		}
	}
}

func TestNavigationTarget(t *testing.T) {
	b := domain.Branch{Name: "Naco", Lat: 18.5, Lng: -69.95}

	assert.Equal(t, domain.NavigationTarget{Lat: 18.5, Lng: -69.95, Label: "Sirena - Naco"}, NavigationTarget(b, "Sirena"))
	assert.Equal(t, "Naco", NavigationTarget(b, "").Label)
	assert.Equal(t, "Sirena", NavigationTarget(domain.Branch{}, "Sirena").Label)
}
