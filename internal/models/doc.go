// Package models defines the domain entities shared by the Twitch and Spotify clients, the
// orchestrating pipeline, and the run history store.
//
// The package contains two categories of types:
//
// 1. Remote entities: read-only views of data owned by the providers
//   - [Reward] : a channel-points custom reward
//   - [Redemption] : one viewer's claim of a reward, including the free-text message
//   - [Account] : the Spotify account acting on behalf of the user
//   - [Playlist] : a playlist created during a run
//
// 2. Persistent entities: rows in the optional run history database
//   - [Run] : summary of one playlist build
//   - [RunItem] : the outcome for a single redemption within a run
//
// Persistent entities implement [Model].
package models
