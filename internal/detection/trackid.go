package detection

import (
	"cmp"
	"strconv"
	"strings"
)

// SubjectID is the reserved integer track identity of the subject (salesman).
const SubjectID int64 = -1

// TrackKind distinguishes the two TrackID variants.
type TrackKind uint8

const (
	// TrackInt identities come from integer track_id fields.
	TrackInt TrackKind = iota
	// TrackToken identities keep a non-integer track_id field verbatim.
	TrackToken
)

// TrackID identifies one tracked entity. The zero value is integer track 0.
// TrackID is comparable and safe to use as a map key.
type TrackID struct {
	kind  TrackKind
	num   int64
	token string
}

// IntTrack returns the integer identity n.
func IntTrack(n int64) TrackID {
	return TrackID{kind: TrackInt, num: n}
}

// TokenTrack returns an opaque identity for a non-integer track field.
func TokenTrack(token string) TrackID {
	return TrackID{kind: TrackToken, token: token}
}

// Subject returns the sentinel subject identity.
func Subject() TrackID {
	return IntTrack(SubjectID)
}

// ParseTrackID interprets a raw track_id field. Integer-parseable values become
// integer identities, everything else is kept as a token.
func ParseTrackID(field string) TrackID {
	field = strings.TrimSpace(field)
	if n, err := strconv.ParseInt(field, 10, 64); err == nil {
		return IntTrack(n)
	}
	return TokenTrack(field)
}

// Kind reports which variant the identity holds.
func (id TrackID) Kind() TrackKind { return id.kind }

// Int returns the integer value when the identity is an integer track.
func (id TrackID) Int() (int64, bool) {
	if id.kind != TrackInt {
		return 0, false
	}
	return id.num, true
}

// Token returns the raw token when the identity is an opaque token.
func (id TrackID) Token() (string, bool) {
	if id.kind != TrackToken {
		return "", false
	}
	return id.token, true
}

// IsSubject reports whether id is the integer sentinel. Tokens never match,
// even when they spell "-1" in some other form.
func (id TrackID) IsSubject() bool {
	return id.kind == TrackInt && id.num == SubjectID
}

// String renders the identity the way it appears in label files.
func (id TrackID) String() string {
	if id.kind == TrackToken {
		return id.token
	}
	return strconv.FormatInt(id.num, 10)
}

// Compare orders integer identities before tokens, integers numerically and
// tokens lexically.
func (id TrackID) Compare(other TrackID) int {
	if id.kind != other.kind {
		return cmp.Compare(id.kind, other.kind)
	}
	if id.kind == TrackInt {
		return cmp.Compare(id.num, other.num)
	}
	return strings.Compare(id.token, other.token)
}

// MarshalText implements encoding.TextMarshaler.
func (id TrackID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *TrackID) UnmarshalText(text []byte) error {
	*id = ParseTrackID(string(text))
	return nil
}

// Equal reports whether both identities are the same variant and value.
func (id TrackID) Equal(other TrackID) bool {
	return id == other
}
