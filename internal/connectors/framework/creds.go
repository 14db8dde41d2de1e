package framework

import "encoding/base64"

// BasicAuthHeader builds the "Authorization: Basic ..." header value for
// username/password (or username/token) credentials, centralised here so
// the connectors that use Basic auth (jira when a username is set,
// testrail) build it the same way (spec §4.4, §6.7).
func BasicAuthHeader(username, password string) string {
	raw := username + ":" + password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// BearerAuthHeader builds the "Authorization: Bearer ..." header value for
// a personal-access/API token (spec §4.4, §6.7).
func BearerAuthHeader(token string) string {
	return "Bearer " + token
}
