// Package twitter is a client for the version 1 REST API.
//
// Every call goes through one executor that signs the request with OAuth 1.0a,
// consults the client's ratelimit.Tracker before sending and classifies the
// response as an errs.OutcomeKind. Paginated endpoints are collected by a
// generic pager in either cursor style (follower and friend ids) or page
// style (timelines); the returned Result says why collection stopped.
//
// A Client is meant to be driven by one goroutine at a time. Fan-out over
// many subjects should use one Client per worker.
package twitter
