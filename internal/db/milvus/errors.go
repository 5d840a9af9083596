package milvus

import "fmt"

// Op names the SDK call behind an Error.
const (
	OpHasCollection    = "HasCollection"
	OpCreateCollection = "CreateCollection"
	OpCreateIndex      = "CreateIndex"
	OpLoadCollection   = "LoadCollection"
	OpHasPartition     = "HasPartition"
	OpCreatePartition  = "CreatePartition"
	OpShowPartitions   = "ShowPartitions"
	OpStatistics       = "GetStatistics"
	OpUpsert           = "Upsert"
	OpDelete           = "Delete"
	OpSearch           = "Search"
)

// Error wraps an SDK error with the failing call.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "milvus " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// DimError reports a vector whose length does not match the collection.
type DimError struct {
	ID   string
	Got  int
	Want int
}

func (e *DimError) Error() string {
	return fmt.Sprintf("vector %s has dimension %d, collection expects %d", e.ID, e.Got, e.Want)
}
