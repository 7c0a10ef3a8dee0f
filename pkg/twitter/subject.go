package twitter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SubjectKind tells how a Subject identifies an account.
type SubjectKind int

const (
	SubjectByID SubjectKind = iota
	SubjectByHandle
)

// ErrInvalidSubject is returned for a zero id or an empty handle.
var ErrInvalidSubject = errors.New("invalid subject")

// Subject names the account an endpoint operates on, either by numeric id or
// by screen name. The tag is always explicit; nothing here guesses from the
// shape of a string.
type Subject struct {
	kind   SubjectKind
	id     int64
	handle string
}

// ByID identifies an account by its numeric id.
func ByID(id int64) Subject {
	return Subject{kind: SubjectByID, id: id}
}

// ByHandle identifies an account by screen name. A leading @ is dropped.
func ByHandle(handle string) Subject {
	return Subject{kind: SubjectByHandle, handle: strings.TrimPrefix(strings.TrimSpace(handle), "@")}
}

func (s Subject) Kind() SubjectKind { return s.kind }
func (s Subject) ID() int64         { return s.id }
func (s Subject) Handle() string    { return s.handle }

func (s Subject) String() string {
	if s.kind == SubjectByID {
		return strconv.FormatInt(s.id, 10)
	}
	return "@" + s.handle
}

// Validate rejects subjects that cannot name any account.
func (s Subject) Validate() error {
	switch s.kind {
	case SubjectByID:
		if s.id <= 0 {
			return fmt.Errorf("%w: id %d", ErrInvalidSubject, s.id)
		}
	case SubjectByHandle:
		if s.handle == "" {
			return fmt.Errorf("%w: empty handle", ErrInvalidSubject)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidSubject, s.kind)
	}
	return nil
}

// params sets user_id or screen_name on v.
func (s Subject) params(v url.Values) {
	if s.kind == SubjectByID {
		v.Set("user_id", strconv.FormatInt(s.id, 10))
		return
	}
	v.Set("screen_name", s.handle)
}
