package services

import (
	"context"

	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/domain/core/entities"
	"templatehub/domain/core/valueobjects"
	"templatehub/domain/events"
	"templatehub/pkg/auth"
	pkgerrors "templatehub/pkg/errors"
	"templatehub/pkg/utils"
)

// UserService manages accounts and their organisations.
type UserService struct {
	docs      ports.DocumentStore
	hasher    auth.PasswordHasher
	publisher ports.EventPublisher
	logger    *zap.Logger
	now       utils.Clock
}

// NewUserService creates a user service. publisher may be nil.
func NewUserService(docs ports.DocumentStore, hasher auth.PasswordHasher, publisher ports.EventPublisher, logger *zap.Logger) *UserService {
	return &UserService{
		docs:      docs,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger.Named("users"),
		now:       utils.NowUTC,
	}
}

// Register creates an account. The organisation named by OrgName is
// reused when it exists and created otherwise; without OrgName an
// organisation named after the user is created.
func (s *UserService) Register(ctx context.Context, reg entities.Registration) (*entities.User, error) {
	if err := utils.ValidateStruct(reg); err != nil {
		return nil, err
	}

	existing, err := s.docs.Read(ctx, entities.CollectionUsers, ports.Document{"username": reg.Username}, ports.ReadOptions{Projection: []string{ports.IDField}})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.NewConflictError("username '" + reg.Username + "' is taken")
	}

	orgName := reg.OrgName
	if orgName == "" {
		orgName = reg.Username
	}
	orgID, err := s.resolveOrg(ctx, orgName)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to hash password").WithCause(err)
	}

	user := entities.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		OrgID:        orgID,
		CreatedAt:    s.now(),
	}
	user.ID, err = s.docs.Create(ctx, entities.CollectionUsers, user.Document())
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID), zap.String("org_id", orgID))
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewUserRegistered(user.ID, user.Username, orgID, user.CreatedAt)); err != nil {
			s.logger.Error("Failed to publish event", zap.String("event_type", events.TypeUserRegistered), zap.Error(err))
		}
	}
	return &user, nil
}

func (s *UserService) resolveOrg(ctx context.Context, name string) (string, error) {
	org, err := s.docs.Read(ctx, entities.CollectionOrgs, ports.Document{"org_name": name}, ports.ReadOptions{Projection: []string{ports.IDField}})
	if err != nil {
		return "", err
	}
	if org != nil {
		id, _ := org[ports.IDField].(string)
		return id, nil
	}
	return s.docs.Create(ctx, entities.CollectionOrgs, ports.Document{"org_name": name})
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	doc, err := s.docs.Read(ctx, entities.CollectionUsers, ports.Document{"username": username}, ports.ReadOptions{})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, pkgerrors.NewUnauthorizedError("invalid username or password")
	}

	user := entities.UserFromDocument(doc)
	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		s.logger.Warn("Stored password hash is unreadable", zap.String("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.NewUnauthorizedError("invalid username or password")
	}
	if !ok {
		return nil, pkgerrors.NewUnauthorizedError("invalid username or password")
	}
	return &user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*entities.User, error) {
	if !valueobjects.IsRecordID(id) {
		return nil, pkgerrors.NewInvalidArgumentError("invalid user id %q", id)
	}
	doc, err := s.docs.Read(ctx, entities.CollectionUsers, ports.Document{ports.IDField: id}, ports.ReadOptions{})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	u := entities.UserFromDocument(doc)
	return &u, nil
}

// GetByUsername returns a user by name, reading only projection when it is
// set. A record without org_id reports the default organisation.
func (s *UserService) GetByUsername(ctx context.Context, username string, projection []string) (*entities.User, error) {
	doc, err := s.docs.Read(ctx, entities.CollectionUsers, ports.Document{"username": username}, ports.ReadOptions{Projection: projection})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	u := entities.UserFromDocument(doc)
	return &u, nil
}
