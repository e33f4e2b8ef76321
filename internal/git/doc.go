// Package git provides typed wrappers around the git CLI used by reword.
// Every mutation goes through a runner.Runner-compatible Executor so that
// commands get timeouts, process cleanup and run recording. Read-only
// inspection of HEAD uses go-git and falls back to the CLI when go-git
// cannot open the repository.
package git
