package customer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
	"github.com/lavendelhygiene/ttx-bridge/internal/tripletex"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotLinked     = errors.New("user is not linked to a Tripletex customer")
	ErrDuplicateLink = errors.New("tripletex customer is already linked to another user")
)

// LinkResult describes the outcome of saving a manually entered link
type LinkResult string

const (
	LinkSaved   LinkResult = "saved"
	LinkCleared LinkResult = "cleared"
)

// Client is the part of the Tripletex client the customer service needs
type Client interface {
	CreateCustomer(ctx context.Context, customer *tripletex.Customer) (int, error)
	GetCustomer(ctx context.Context, id int) (*tripletex.Customer, error)
	UpdateCustomer(ctx context.Context, id int, update *tripletex.CustomerUpdate) error
	UpdateDeliveryAddress(ctx context.Context, id int, update *tripletex.AddressUpdate) error
}

// Service links shop users to Tripletex customers and keeps them in sync
type Service struct {
	client   Client
	entities entity.Repository
	now      func() time.Time
}

// NewService creates a new customer service
func NewService(client Client, entities entity.Repository) *Service {
	return &Service{
		client:   client,
		entities: entities,
		now:      time.Now,
	}
}

// Profile loads the customer profile of a user
func (service *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	attrs, err := service.entities.GetAttributes(ctx, entity.KindUser, userID)
	if err != nil {
		return nil, err
	}
	return ProfileFromAttributes(userID, attrs), nil
}

// LinkedID returns the Tripletex customer ID a user is linked to; zero if there is none
func (service *Service) LinkedID(ctx context.Context, userID int64) (int, error) {
	raw, ok, err := service.entities.GetAttribute(ctx, entity.KindUser, userID, entity.KeyTripletexCustomerID)
	if err != nil || !ok {
		return 0, err
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, nil
	}
	return id, nil
}

// CreateAndLink creates a new Tripletex customer out of the profile of a user and links the user to it
func (service *Service) CreateAndLink(ctx context.Context, userID, actorID int64) (int, error) {
	profile, err := service.Profile(ctx, userID)
	if err != nil {
		return 0, err
	}
	id, err := service.client.CreateCustomer(ctx, profile.CreatePayload())
	if err != nil {
		return 0, err
	}
	if err := service.link(ctx, userID, strconv.Itoa(id), actorID); err != nil {
		return 0, fmt.Errorf("link created customer %d: %w", id, err)
	}
	log.Info().Int64("user_id", userID).Int("ttx_id", id).Msg("Created Tripletex customer and linked user.")
	return id, nil
}

// SyncUser pushes the fields of the profile of a linked user that differ from the remote customer.
// It reports whether any remote write was issued.
func (service *Service) SyncUser(ctx context.Context, userID int64) (bool, error) {
	id, err := service.LinkedID(ctx, userID)
	if err != nil {
		return false, err
	}
	if id == 0 {
		return false, ErrNotLinked
	}
	profile, err := service.Profile(ctx, userID)
	if err != nil {
		return false, err
	}
	remote, err := service.client.GetCustomer(ctx, id)
	if err != nil {
		return false, err
	}

	plan := Diff(profile, remote)
	if plan.Empty() {
		log.Debug().Int64("user_id", userID).Int("ttx_id", id).Msg("Tripletex customer is up to date.")
		return false, nil
	}
	if !plan.Customer.Empty() {
		if err := service.client.UpdateCustomer(ctx, id, plan.Customer); err != nil {
			return false, err
		}
	}
	if !plan.DeliveryAddress.Empty() {
		if err := service.client.UpdateDeliveryAddress(ctx, plan.DeliveryAddressID, plan.DeliveryAddress); err != nil {
			return false, err
		}
	}
	log.Info().Int64("user_id", userID).Int("ttx_id", id).Msg("Synced user to Tripletex.")
	return true, nil
}

// SaveLinkFromInput links a user to a manually entered Tripletex customer ID.
// Non-digits are stripped; an empty result removes the link.
func (service *Service) SaveLinkFromInput(ctx context.Context, userID int64, raw string, actorID int64) (LinkResult, error) {
	id := nonDigits.ReplaceAllString(raw, "")
	if id == "" {
		if err := service.Unlink(ctx, userID); err != nil {
			return "", err
		}
		return LinkCleared, nil
	}

	owner, found, err := service.entities.FindByAttribute(ctx, entity.KindUser, entity.KeyTripletexCustomerID, id)
	if err != nil {
		return "", err
	}
	if found && owner != userID {
		return "", fmt.Errorf("%w: customer %s belongs to user %d", ErrDuplicateLink, id, owner)
	}
	if err := service.link(ctx, userID, id, actorID); err != nil {
		return "", err
	}
	return LinkSaved, nil
}

// Unlink removes the link of a user including its audit attributes
func (service *Service) Unlink(ctx context.Context, userID int64) error {
	for _, key := range []string{entity.KeyTripletexCustomerID, entity.KeyTripletexLinkedBy, entity.KeyTripletexLinkedAt} {
		if err := service.entities.DeleteAttribute(ctx, entity.KindUser, userID, key); err != nil {
			return err
		}
	}
	log.Info().Int64("user_id", userID).Msg("Unlinked user from Tripletex.")
	return nil
}

func (service *Service) link(ctx context.Context, userID int64, id string, actorID int64) error {
	attrs := [][2]string{
		{entity.KeyTripletexCustomerID, id},
		{entity.KeyTripletexLinkedBy, strconv.FormatInt(actorID, 10)},
		{entity.KeyTripletexLinkedAt, service.now().UTC().Format("2006-01-02 15:04:05")},
	}
	for _, attr := range attrs {
		if err := service.entities.SetAttribute(ctx, entity.KindUser, userID, attr[0], attr[1]); err != nil {
			return err
		}
	}
	return nil
}
