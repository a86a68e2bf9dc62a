package geo

import (
	"fmt"

	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/constants"
)

// NearestBranch picks the provider's branch closest to loc. Ties go to the
// lower branch id. Any distance is acceptable.
//
// A nil loc means no fix could be obtained; it yields ErrBranchNotFound just
// like a provider without branches, and callers treat both as a soft failure.
func NearestBranch(loc *domain.UserLocation, providerID int64, branches []domain.Branch) (domain.BranchDistance, error) {
	if loc == nil {
		return domain.BranchDistance{}, fmt.Errorf("%w: no location for provider %d", constants.ErrBranchNotFound, providerID)
	}

	var (
		best  domain.BranchDistance
		found bool
	)
	for _, b := range branches {
		if b.ProviderID != providerID {
			continue
		}

		d := Distance(loc.Point(), b.Point())
		if !found || d < best.DistanceKm || (d == best.DistanceKm && b.ID < best.Branch.ID) {
			best = domain.BranchDistance{Branch: b, DistanceKm: d}
			found = true
		}
	}

	if !found {
		return domain.BranchDistance{}, fmt.Errorf("%w: provider %d has no branches", constants.ErrBranchNotFound, providerID)
	}

	return best, nil
}

func NavigationTarget(b domain.Branch, providerName string) domain.NavigationTarget {
	label := b.Name
	if providerName != "" && label != "" {
		label = providerName + " - " + b.Name
	} else if label == "" {
		label = providerName
	}
	return domain.NavigationTarget{Lat: b.Lat, Lng: b.Lng, Label: label}
}
