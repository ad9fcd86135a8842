package mutate

import (
	"errors"
)

var ErrNilDataProvider = errors.New("nil data provider supplied")
var ErrEmptyResourceName = errors.New("empty resource name supplied")
var ErrNoRecordIDs = errors.New("no record ids supplied")
var ErrNoValues = errors.New("no values supplied")
var ErrUpdatingRecordsFailed = errors.New("updating records failed")
var ErrPartialUpdateFailure = errors.New("some records failed to update")
var ErrRecordsNotFound = errors.New("fewer records were found than requested")
var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptyTableName = errors.New("empty table name supplied")
var ErrEmptyIDColumnName = errors.New("empty id column name supplied")
var ErrBuildingQueryFailed = errors.New("building sql query failed")
var ErrScanningDBRowFailed = errors.New("scanning db row failed")
var ErrDecodingRecordFailed = errors.New("decoding record from db row failed")

// RecordID is a type alias for string, identifying a single record of a resource.
type RecordID = string

// ResourceName is a type alias for string, naming a backend resource (e.g. "posts").
type ResourceName = string

// Values holds the partial value set applied to each record of a mutation.
type Values = map[string]any

// Record is a single record as returned by a data provider.
type Record = map[string]any

// Metadata is an optional bag of provider-specific parameters passed through
// to the data provider untouched.
type Metadata = map[string]any
