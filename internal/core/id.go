package core

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewReportID returns a fresh report identifier: a MongoDB ObjectID in hex.
// ObjectIDs from one process sort in creation order.
func NewReportID() string {
	return primitive.NewObjectID().Hex()
}

// ParseReportID validates id and returns its ObjectID form.
// Anything that is not 24 hex characters is an ErrInvalidID.
func ParseReportID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

// CanonicalReportID validates id and returns it in lowercase hex, the form
// every store keys reports by.
func CanonicalReportID(id string) (string, error) {
	oid, err := ParseReportID(id)
	if err != nil {
		return "", err
	}
	return oid.Hex(), nil
}
