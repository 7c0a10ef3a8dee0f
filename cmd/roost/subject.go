package main

import (
	"fmt"
	"strconv"
	"strings"

	"roost/pkg/twitter"
)

// parseSubject turns a command line argument into a Subject. "@name" is a
// handle and all digits is an id unless --by-id or --by-handle force the tag.
func parseSubject(arg string, forceID, forceHandle bool) (twitter.Subject, error) {
	arg = strings.TrimSpace(arg)

	switch {
	case forceID && forceHandle:
		return twitter.Subject{}, fmt.Errorf("--by-id and --by-handle are mutually exclusive")
	case forceID:
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return twitter.Subject{}, fmt.Errorf("%w: %q is not a numeric user id", twitter.ErrInvalidSubject, arg)
		}
		return twitter.ByID(id), nil
	case forceHandle:
		s := twitter.ByHandle(arg)
		return s, s.Validate()
	}

	if strings.HasPrefix(arg, "@") {
		s := twitter.ByHandle(arg)
		return s, s.Validate()
	}
	if isDigits(arg) {
		if id, err := strconv.ParseInt(arg, 10, 64); err == nil && id > 0 {
			return twitter.ByID(id), nil
		}
	}
	s := twitter.ByHandle(arg)
	return s, s.Validate()
}

func parseSubjects(args []string) ([]twitter.Subject, error) {
	subjects := make([]twitter.Subject, 0, len(args))
	for _, arg := range args {
		s, err := parseSubject(arg, byID, byHandle)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseCount reads the optional trailing count argument of the timeline commands.
func parseCount(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("count must be a positive number, got %q", args[0])
	}
	return n, nil
}
