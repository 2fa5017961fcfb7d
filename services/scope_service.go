package services

import (
	"fmt"

	"occupancy-dashboard/models"
)

// Narrowing is the optional geographic restriction a requester may supply
// on top of their own scope.
type Narrowing struct {
	Province     string
	Municipality string
}

// ScopeService resolves a requester's role and address into the geographic
// filter every aggregation call runs under.
type ScopeService struct {
	db *DatabaseService
}

// NewScopeService creates a new scope service.
func NewScopeService(db *DatabaseService) *ScopeService {
	return &ScopeService{db: db}
}

// Resolve produces the geographic scope for a request. Region and province
// admins may narrow to a descendant of their own territory; a narrowing
// outside it is a scope violation, never a silent fallback. Municipality
// admins and establishment users cannot narrow at all: their own address
// always wins and any narrowing parameter is ignored.
func (s *ScopeService) Resolve(requester models.Requester, narrowing Narrowing) (models.GeographicScope, error) {
	switch requester.Role {
	case models.RoleRegionAdmin:
		return s.resolveRegionAdmin(requester, narrowing)
	case models.RoleProvinceAdmin:
		return s.resolveProvinceAdmin(requester, narrowing)
	case models.RoleMunicipalityAdmin:
		return models.GeographicScope{
			Region:       requester.Region,
			Province:     requester.Province,
			Municipality: requester.Municipality,
		}, nil
	case models.RoleEstablishment:
		return models.GeographicScope{
			Region:          requester.Region,
			Province:        requester.Province,
			Municipality:    requester.Municipality,
			EstablishmentID: requester.EstablishmentID,
		}, nil
	default:
		return models.GeographicScope{}, &models.ValidationError{
			Message: fmt.Sprintf("unknown requester role %q", requester.Role),
		}
	}
}

func (s *ScopeService) resolveRegionAdmin(requester models.Requester, narrowing Narrowing) (models.GeographicScope, error) {
	scope := models.GeographicScope{Region: requester.Region}

	if province := normalizeNarrowing(narrowing.Province); province != "" {
		ok, err := s.db.ProvinceInRegion(requester.Region, province)
		if err != nil {
			return models.GeographicScope{}, err
		}
		if !ok {
			return models.GeographicScope{}, &models.ScopeViolationError{
				Message: fmt.Sprintf("province %q is not in region %q", province, requester.Region),
			}
		}
		scope.Province = province
	}

	if municipality := normalizeNarrowing(narrowing.Municipality); municipality != "" {
		if scope.Province != "" {
			ok, err := s.db.MunicipalityInProvince(scope.Province, municipality)
			if err != nil {
				return models.GeographicScope{}, err
			}
			if !ok {
				return models.GeographicScope{}, &models.ScopeViolationError{
					Message: fmt.Sprintf("municipality %q is not in province %q", municipality, scope.Province),
				}
			}
		} else {
			ok, err := s.db.MunicipalityInRegion(requester.Region, municipality)
			if err != nil {
				return models.GeographicScope{}, err
			}
			if !ok {
				return models.GeographicScope{}, &models.ScopeViolationError{
					Message: fmt.Sprintf("municipality %q is not in region %q", municipality, requester.Region),
				}
			}
		}
		scope.Municipality = municipality
	}

	return scope, nil
}

func (s *ScopeService) resolveProvinceAdmin(requester models.Requester, narrowing Narrowing) (models.GeographicScope, error) {
	scope := models.GeographicScope{
		Region:   requester.Region,
		Province: requester.Province,
	}

	// Province admins cannot re-target another province.
	if province := normalizeNarrowing(narrowing.Province); province != "" && province != requester.Province {
		return models.GeographicScope{}, &models.ScopeViolationError{
			Message: fmt.Sprintf("province %q is outside your scope", province),
		}
	}

	if municipality := normalizeNarrowing(narrowing.Municipality); municipality != "" {
		ok, err := s.db.MunicipalityInProvince(requester.Province, municipality)
		if err != nil {
			return models.GeographicScope{}, err
		}
		if !ok {
			return models.GeographicScope{}, &models.ScopeViolationError{
				Message: fmt.Sprintf("municipality %q is not in province %q", municipality, requester.Province),
			}
		}
		scope.Municipality = municipality
	}

	return scope, nil
}

// normalizeNarrowing maps the "no restriction" sentinel to empty.
func normalizeNarrowing(value string) string {
	if value == models.ScopeAll {
		return ""
	}
	return value
}
