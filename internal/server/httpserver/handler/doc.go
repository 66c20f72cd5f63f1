// Package handler serves the admin API over HTTP.
//
// Every operation is reached through POST /v1/call/{method} and answered
// with the apiv1.Response envelope. List methods reply with one page and
// set Paged; clients continue with the returned cursor.
package handler
