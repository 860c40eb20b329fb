// Package services implements the two remote APIs a playlist build talks to.
//
// # Rewards API
//
// [TwitchService] reads the Helix API with the user token from the handshake. Every request carries
// the application's Client-Id header and a bearer token. Redemptions are requested 50 at a time and the
// pagination cursor is followed until it comes back empty.
//
// Helix error bodies carry a human readable "message" field, which is extracted with gjson and wrapped
// in [shared.ErrAPIRequest].
//
// # Playlist API
//
// [SpotifyService] wraps the zmb3/spotify client over an [oauth2] HTTP client. Playlists are always
// created new. Tracks are inserted in batches of [MaxTracksPerRequest], in order.
//
// # OAuth Configs
//
// [TwitchOAuthConfig] and [SpotifyOAuthConfig] map the configured application credentials onto the
// provider endpoints and the scopes needed here. The handshake itself lives in package server.
package services
