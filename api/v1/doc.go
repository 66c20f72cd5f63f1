// Package apiv1 holds the wire types of the admin API.
//
// The router produces these values in-process; the HTTP transport encodes
// them as JSON; the API client decodes them on the other side. Argument
// structs carry both json and mapstructure tags: calls travel as
// map[string]any and are decoded into these structs by the router.
package apiv1
