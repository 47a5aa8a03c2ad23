package tenant

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrMalformedOrgID = errors.New("malformed organization id")

// OrgID identifies an organization. Values are only produced by ParseOrgID and
// NewOrgID, so holding an OrgID means the format check has already passed.
type OrgID struct {
	value string
}

// NewOrgID returns a fresh ObjectID-form organization id for a new record.
func NewOrgID() OrgID {
	return OrgID{value: primitive.NewObjectID().Hex()}
}

// ParseOrgID accepts a 24-character hex ObjectID or a canonical UUID. The result
// is lower-cased so the same organization never appears under two spellings.
func ParseOrgID(raw string) (OrgID, error) {
	s := strings.TrimSpace(raw)
	switch len(s) {
	case 24:
		oid, err := primitive.ObjectIDFromHex(strings.ToLower(s))
		if err != nil {
			return OrgID{}, ErrMalformedOrgID
		}
		return OrgID{value: oid.Hex()}, nil
	case 36:
		u, err := uuid.Parse(s)
		if err != nil {
			return OrgID{}, ErrMalformedOrgID
		}
		return OrgID{value: u.String()}, nil
	default:
		return OrgID{}, ErrMalformedOrgID
	}
}

// MustParseOrgID is ParseOrgID for constants in tests and seeds.
func MustParseOrgID(raw string) OrgID {
	id, err := ParseOrgID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

func (id OrgID) String() string { return id.value }

func (id OrgID) IsZero() bool { return id.value == "" }

func (id OrgID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

func (id *OrgID) UnmarshalText(b []byte) error {
	parsed, err := ParseOrgID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
