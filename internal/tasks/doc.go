// Package tasks turns a channel's song request redemptions into a playlist, with real-time progress reporting.
//
// # Pipeline
//
// [Pipeline.Run] performs one build:
//
//  1. Authorize with Twitch (once per [Session])
//  2. Resolve the channel login to a broadcaster id
//  3. Find the reward by exact title ([FindReward])
//  4. Fetch redemptions for each configured status, following pagination
//  5. Parse a track link out of every message; failures are logged and reported as a [Skip]
//  6. Optionally search for plain-text requests
//  7. Optionally drop repeated tracks, keeping the first request
//  8. Authorize with Spotify, create the playlist and add the tracks in batches
//
// When no message yields a track the run fails with [shared.ErrNoTracks] before Spotify is contacted.
// A dry run stops after step 7.
//
// # Progress Reporting
//
// Runs use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Sessions
//
// A [Session] caches one token per provider for the lifetime of the process. An [Authorizer] is only invoked
// when the session has no token for its provider. Tokens are never persisted.
package tasks
