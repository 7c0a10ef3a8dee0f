package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roost/pkg/twitter"
)

func TestParseSubject(t *testing.T) {
	tests := []struct {
		arg         string
		forceID     bool
		forceHandle bool
		wantKind    twitter.SubjectKind
		wantID      int64
		wantHandle  string
	}{
		{arg: "@jack", wantKind: twitter.SubjectByHandle, wantHandle: "jack"},
		{arg: "jack", wantKind: twitter.SubjectByHandle, wantHandle: "jack"},
		{arg: "12345", wantKind: twitter.SubjectByID, wantID: 12345},
		{arg: " 12 ", wantKind: twitter.SubjectByID, wantID: 12},
		{arg: "@12345", wantKind: twitter.SubjectByHandle, wantHandle: "12345"},
		{arg: "12345", forceHandle: true, wantKind: twitter.SubjectByHandle, wantHandle: "12345"},
		{arg: "777", forceID: true, wantKind: twitter.SubjectByID, wantID: 777},
		{arg: "j4ck", wantKind: twitter.SubjectByHandle, wantHandle: "j4ck"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			s, err := parseSubject(tt.arg, tt.forceID, tt.forceHandle)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, s.Kind())
			if tt.wantKind == twitter.SubjectByID {
				assert.Equal(t, tt.wantID, s.ID())
			} else {
				assert.Equal(t, tt.wantHandle, s.Handle())
			}
		})
	}
}

func TestParseSubjectErrors(t *testing.T) {
	_, err := parseSubject("jack", true, false)
	assert.ErrorIs(t, err, twitter.ErrInvalidSubject)

	_, err = parseSubject("@", false, false)
	assert.ErrorIs(t, err, twitter.ErrInvalidSubject)

	_, err = parseSubject("", false, true)
	assert.ErrorIs(t, err, twitter.ErrInvalidSubject)

	_, err = parseSubject("1", true, true)
	assert.Error(t, err)
}

func TestParseCount(t *testing.T) {
	n, err := parseCount(nil, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = parseCount([]string{"50"}, 10)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	for _, bad := range []string{"0", "-3", "ten"} {
		_, err := parseCount([]string{bad}, 10)
		assert.Error(t, err, bad)
	}
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c d", oneLine("a\nb\r\nc\rd"))
}
