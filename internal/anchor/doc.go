// Package anchor provides the surfaces interactive sign-in is presented on.
//
// A desktop host opens the identity provider's page in the system browser
// (Browser). Headless hosts print the URL and let the user open it elsewhere
// (Console). The surface is chosen once at composition time with ForMode and
// handed to the auth.Coordinator as an auth.AnchorProvider.
package anchor
