/*
Package log wraps zerolog with the cluster's structured logging conventions:
JSON or console output selected by Config.JSONOutput, level filtering via
Config.Level, and a set of WithX helpers (WithComponent, WithNodeID,
WithPartitionID, WithDocID, WithQueryID) that attach the field names every
component uses to correlate a log line to the entity it was acting on.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("consensus").With().Str("node_id", nodeID).Logger()
	logger.Info().Uint64("term", term).Msg("became leader")

Package-level Info/Debug/Warn/Error/Fatal write through the global logger
configured by Init; component packages generally prefer WithComponent so
every line is attributable without threading a *zerolog.Logger through
every constructor.
*/
package log
