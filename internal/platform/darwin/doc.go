// Package darwin provides macOS input through the command-line tools that
// ship with the OS: osascript for keyboard, windows and screen geometry,
// screencapture for snapshots and open for launching applications. Mouse
// input uses cliclick when it is installed.
package darwin
