package catalog

import "errors"

// ErrNoSuchFile indicates the requested record does not exist.
var ErrNoSuchFile = errors.New("no such catalog file")

// ErrNoSuchReviewEntry indicates the requested review-queue record does not exist.
var ErrNoSuchReviewEntry = errors.New("no such review entry")
