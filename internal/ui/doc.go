// Package ui implements the interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through a single playlist build:
//  1. [PromptView] : Enter the channel name (skipped when it was given on the command line)
//  2. [RunView] : Follow progress updates while the build runs
//  3. [ResultView] : Browse the requested tracks and the skipped messages
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the pipeline, providing non-blocking status reporting during a build.
//
// [ChannelPrompt] is also usable on its own, which is how the run command asks for a missing channel.
// The lipgloss [Palette] styles status lines for the plain CLI output as well.
package ui
