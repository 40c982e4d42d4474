package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/opencenters/catalog-api/internal/models"
	"github.com/opencenters/catalog-api/internal/repository"
	"github.com/opencenters/catalog-api/internal/store"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
)

// EventService is the read path and mutation pipeline for events.
type EventService struct {
	catalog *repository.Catalog
	store   store.Store
	authz   Authorizer
	logger  *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(catalog *repository.Catalog, st store.Store, authz Authorizer, logger *zap.Logger) *EventService {
	if authz == nil {
		authz = RosterAuthorizer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{catalog: catalog, store: st, authz: authz, logger: logger}
}

// Get returns the augmented full event. Address and name absent from
// the stored document are resolved from the owning center.
func (s *EventService) Get(ctx context.Context, id int) (*models.FullEvent, error) {
	raw, err := s.catalog.Events.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var ev models.FullEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status,
			fmt.Sprintf("event document %d could not be parsed", id))
	}

	center, err := s.catalog.Centers.Get(ctx, ev.Center)
	if err != nil && !errors.Is(err, appErrors.ErrNotFound) {
		return nil, err
	}
	AugmentFull(&ev, center)
	return &ev, nil
}

// Save runs the event mutation pipeline: resolve the target center,
// authorize, validate and merge the delta, then commit through the
// index, the store, and the event cache. An id at or below zero means
// "create new"; the allocated id is consumed only when the whole
// validation succeeded.
func (s *EventService) Save(ctx context.Context, req models.EventUpdateRequest, claims *models.JWTClaims) (*models.FullEvent, error) {
	delta := req.Fields
	if delta == nil {
		delta = map[string]string{}
	}
	creating := req.ID <= 0

	var ev models.FullEvent
	if creating {
		centerID := delta["center"]
		if centerID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "center is required")
		}
		ev = models.FullEvent{}
		ev.Center = centerID
	} else {
		entry, ok := s.catalog.Index.Find(req.ID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown event %d", req.ID))
		}
		raw, err := s.catalog.Events.Get(ctx, entry.ID)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status,
				fmt.Sprintf("event document %d could not be parsed", req.ID))
		}
	}

	center, err := s.catalog.Centers.Get(ctx, ev.Center)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanWrite(claims, center) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no write permission for center "+center.ID)
	}

	if creating {
		ev.ID = s.catalog.Index.AllocateID()
	}

	if err := ApplyEventChanges(&ev, delta); err != nil {
		// The provisional id is not consumed on failure.
		return nil, err
	}
	if creating {
		s.catalog.Index.ConsumeID()
	}

	// Storage-level de-duplication: values equal to the center's own
	// are not persisted as copies.
	if ev.Address == center.Address {
		ev.Address = ""
	}
	if ev.Name == center.Name {
		ev.Name = ""
	}
	if ev.EndDate == ev.StartDate {
		ev.EndDate = ""
	}
	ev.ClearDerived()

	if err := s.catalog.Index.Upsert(ctx, ev.Summary()); err != nil {
		return nil, err
	}

	author := s.commitAuthor(claims)
	message := fmt.Sprintf("update event %06d", ev.ID)
	if creating {
		message = fmt.Sprintf("create event %06d", ev.ID)
	}
	if err := s.store.SetJSON(ctx, store.EventPath(ev.ID), &ev, message, author); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to write event document")
	}

	// Cache the same serialization the store writes.
	if raw, err := json.MarshalIndent(&ev, "", "  "); err == nil {
		s.catalog.Events.Put(ev.ID, string(raw)+"\n")
	}

	s.logger.Info("event saved",
		zap.Int("id", ev.ID),
		zap.String("center", ev.Center),
		zap.Bool("created", creating))

	AugmentFull(&ev, center)
	return &ev, nil
}

func (s *EventService) commitAuthor(claims *models.JWTClaims) store.Author {
	if claims == nil || claims.UserID == "" {
		return store.Author{Name: "catalog-api", Email: "catalog-api@localhost"}
	}
	name := claims.Name
	if name == "" {
		name = claims.UserID
	}
	return store.Author{Name: name, Email: claims.UserID + "@catalog"}
}
