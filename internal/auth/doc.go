// Package auth holds the ephemeral session state and drives the
// login/authenticate/logout exchanges with the server.
//
// [Session] owns the session id, user id and access level. Only the
// session id is persisted; user id and level are re-derived by
// re-authenticating after a restart. [Flow] is the state machine on top:
// it sends the auth, login and logout envelopes and turns their responses
// into typed signals on the auth bus. Neither retries a failed attempt;
// the caller decides whether to re-prompt.
package auth
