package service

import (
	"context"
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"github.com/opencenters/catalog-api/internal/models"
	"github.com/opencenters/catalog-api/internal/repository"
	"github.com/opencenters/catalog-api/internal/store"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
	"github.com/opencenters/catalog-api/pkg/geocode"
)

// CenterService reads and updates center records.
type CenterService struct {
	catalog  *repository.Catalog
	store    store.Store
	authz    Authorizer
	geocoder geocode.Geocoder
	logger   *zap.Logger
}

// NewCenterService constructs the service.
func NewCenterService(catalog *repository.Catalog, st store.Store, authz Authorizer, geocoder geocode.Geocoder, logger *zap.Logger) *CenterService {
	if authz == nil {
		authz = RosterAuthorizer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CenterService{catalog: catalog, store: st, authz: authz, geocoder: geocoder, logger: logger}
}

// Get returns one center with its derived map URL.
func (s *CenterService) Get(ctx context.Context, id string) (*models.CenterView, error) {
	center, err := s.catalog.Centers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(center), nil
}

// List returns every center, sorted by id.
func (s *CenterService) List(ctx context.Context) ([]models.CenterView, error) {
	all, err := s.catalog.Centers.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.CenterView, 0, len(all))
	for _, center := range all {
		out = append(out, *s.view(center))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update validates the delta against the cached record, then re-applies
// it inside a fetch-mutate-commit sequence so the committed document
// reflects the store state at commit time, not the pre-validation
// snapshot.
func (s *CenterService) Update(ctx context.Context, id string, delta map[string]string, claims *models.JWTClaims) (*models.CenterView, error) {
	center, err := s.catalog.Centers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanWrite(claims, center) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no write permission for center "+id)
	}

	probe := *center
	if err := ApplyCenterChanges(&probe, delta); err != nil {
		return nil, err
	}

	raw, err := s.store.GetText(ctx, store.CenterPath(id))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to re-read center "+id)
	}
	var fresh models.Center
	if err := json.Unmarshal([]byte(raw), &fresh); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "center document "+id+" could not be parsed")
	}
	if fresh.ID == "" {
		fresh.ID = id
	}
	if err := ApplyCenterChanges(&fresh, delta); err != nil {
		return nil, err
	}

	// The stored document never carries a geocode result. The cached
	// one stays valid while the address is unchanged.
	keepCity := ""
	if fresh.Address == center.Address {
		keepCity = center.Fullcity
	}
	fresh.Fullcity = ""

	author := store.Author{Name: claims.Name, Email: claims.UserID + "@catalog"}
	if author.Name == "" {
		author.Name = claims.UserID
	}
	if err := s.store.SetJSON(ctx, store.CenterPath(id), &fresh, "update center "+id, author); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to write center "+id)
	}
	fresh.Fullcity = keepCity
	s.catalog.Centers.Put(&fresh)

	s.logger.Info("center updated", zap.String("id", id), zap.String("user", claims.UserID))
	return s.view(&fresh), nil
}

func (s *CenterService) view(center *models.Center) *models.CenterView {
	v := &models.CenterView{Center: *center}
	if s.geocoder != nil {
		v.MapURL = s.geocoder.StaticMapURL(center.Address)
	}
	return v
}
