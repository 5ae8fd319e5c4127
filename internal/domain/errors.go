package domain

import "errors"

var (
	ErrUsernameRequired = errors.New("username cannot be empty")
	ErrPasswordRequired = errors.New("password cannot be empty")
	ErrAnonymousCaller  = errors.New("anonymous callers cannot create accounts")
	ErrInvalidRole      = errors.New(`role can only be "attendee" or "organizer"`)
	ErrAmountRequired   = errors.New("amount cannot be zero")
	ErrAccountNotFound  = errors.New("account not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrNotOrganizer     = errors.New("account lacks organizer privileges")
	ErrNotEventOwner    = errors.New("account does not own this event")
	ErrBalanceTooLow    = errors.New("balance is too low, top up required")
	ErrSoldOut          = errors.New("tickets for this event are sold out")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidID        = errors.New("invalid id")
)
