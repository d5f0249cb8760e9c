// Package logging provides opt-in file-based logging with rotation for
// dbadvisor. With --debug, JSON logs are written to ~/.dbadvisor/logs/;
// otherwise only warnings and errors reach stderr.
package logging
