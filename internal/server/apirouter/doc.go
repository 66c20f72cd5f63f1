// Package apirouter is the in-process API router.
//
// Every admin operation is a named method with a required permission and a
// typed argument struct. Callers hand the router a Request (method name,
// args map, caller identity and, for list methods, a cursor and page size)
// and get back either a single result or an apiv1.Page.
//
// The HTTP server and the raw shell's connector both sit on top of this
// package; neither reimplements authorization or paging.
package apirouter
