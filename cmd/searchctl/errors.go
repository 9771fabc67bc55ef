package main

import "regexp"

var leaderHintPattern = regexp.MustCompile(`leader_hint=(\S+)\)`)

// leaderHint recovers the LeaderHint address from a NotLeader error's
// formatted string. The structured ClusterError doesn't survive the grpc
// status conversion on our hand-rolled JSON codec (see DESIGN.md), so
// callers that need to retry against the real leader parse it back out of
// the error text instead.
func leaderHint(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	m := leaderHintPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return "", false
	}
	return m[1], true
}
