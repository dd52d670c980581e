package sharecode

import "fmt"

// DefaultDemoServer is the Valve replay cluster used when a match does not
// carry its own server id.
const DefaultDemoServer = 124

// DemoFilename builds the archive name a match demo is stored under:
// the match id zero-padded to 21 digits, an underscore, the outcome id
// zero-padded to 10 digits, and the ".dem.bz2" suffix. The token is not
// part of the filename.
func DemoFilename(matchID, outcomeID uint64) string {
	return fmt.Sprintf("%021d_%010d.dem.bz2", matchID, outcomeID)
}

// DemoURL builds the full download URL on the given replay server.
// A server id <= 0 falls back to DefaultDemoServer.
func DemoURL(matchID, outcomeID uint64, server int) string {
	if server <= 0 {
		server = DefaultDemoServer
	}
	return fmt.Sprintf("http://replay%d.valve.net/730/%s", server, DemoFilename(matchID, outcomeID))
}
