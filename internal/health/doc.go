/*
Package health tracks the liveness of cluster peers using a hysteresis model:
a peer only flips from healthy to unhealthy after a configurable number of
consecutive failed checks, and flips back after a single success.

The heartbeat broadcaster (internal/heartbeat) uses TCPChecker to tell a
dead peer process from a live one whose heartbeat RPC failed; it keeps its
own consecutive-failure counts and does not use Status. No other package in
this module uses Status.

# Flow

 1. A peer is registered → NewStatus() (assumed healthy).
 2. Every heartbeat_interval: Update(result, config) records the outcome.
 3. After Retries consecutive failures, Healthy flips false.
 4. A single successful check flips Healthy back to true immediately —
    recovery is not hysteretic, only failure is.

Config.StartPeriod exists for symmetry with a container orchestrator's health
checks but is rarely used here: cluster peers don't need a startup grace
period the way a slow-booting container does, since Raft and the heartbeat
loop only start probing a peer once it has already completed cluster join.
*/
package health
