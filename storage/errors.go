package storage

import "errors"

var ErrNotFound = errors.New("item not found in storage")
var ErrItemWithIDAlreadyExists = errors.New("item with this id already exists")
var ErrDuplicateVote = errors.New("voter already voted for this meme")
var ErrDistributionExists = errors.New("distribution already recorded for this order")
var ErrInvalidStatusTransition = errors.New("status transition not allowed from current state")
