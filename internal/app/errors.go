package app

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAnimalNotBreedable = errors.New("animal cannot be bred")
	ErrInvalidLinkToken   = errors.New("invalid telegram link token")
)
