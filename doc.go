// Package auth is the client side of the console authentication flow. It
// holds the session, guards navigation and wraps every backend call.
//
// Session:
//   - SessionStore keeps the bearer token and the identity decoded from it.
//     Both are persisted through a Storage under the "auth_token" and
//     "user_info" keys and restored by Initialize, which must run before the
//     first navigation. Tokens are decoded without signature checks; only
//     the backend can vouch for them.
//   - A token is expired once its exp claim is at or before the current
//     second. Expired or unreadable tokens end the session.
//
// Navigation:
//   - Guard resolves each navigation against the route table: protected
//     routes need a live session and send everyone else to the login page
//     with the requested path in the redirect parameter; the login page
//     sends signed-in users to that path or the landing route.
//   - Router commits navigations after running the guard and is the
//     Navigator the HTTP envelope uses.
//
// HTTP envelope:
//   - Client attaches the bearer token, reports failures as Notices and
//     returns typed errors. A 401 on an authenticated request ends the
//     session and sends the user to the login page.
//
// Activity sinks:
//   - ActivitySink receives session lifecycle events (restore, login,
//     logout, expiry). Sinks run best-effort and their errors are logged.
package auth
