package eventstore

import (
	"git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.NewError(errors.CategoryStore, "could not open build history database").Build()

	// ErrRecordFailed indicates inserting a build record failed.
	ErrRecordFailed = errors.NewError(errors.CategoryStore, "failed to record build").Build()

	// ErrQueryFailed indicates listing build records failed.
	ErrQueryFailed = errors.NewError(errors.CategoryStore, "failed to query build history").Build()
)
