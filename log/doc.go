/*
Package log implements the logging framework of the portal tools.

See https://github.com/cihub/seelog/wiki/Log-levels for an introduction to the
different logging levels.

Every error condition is logged exactly once, as early as possible: errors
returned by external packages are wrapped in a log.Error() call where they are
first seen, errors created by the portal packages themselves are created with
log.Error[f](). Broken internal invariants panic with an error created by
log.Critical[f](). The RPC daemon logs client mistakes (insufficient funds,
invalid amounts) with log.Warn[f]() because it hands them back to the caller
instead of handling them.
*/
package log
