// Package connection carries shell commands to the admin API.
//
// A Connector turns a Call into a Response. Two implementations exist:
//
//   - RawConnector dispatches straight into an in-process router with an
//     operator-declared principal. No network and no credential check.
//   - HTTPConnector posts the call to a running api-server with an API key.
//
// Both page through list methods the same way: the first page is fetched by
// SendCall, the rest lazily while the caller iterates Response.Items.
package connection
