// rpcsecd is the demo daemon for the rpcsec client-side security layer:
// it serves a demo gRPC target behind the server-side flavor gate and
// offers commands that exercise the policy registry, Sec/CliCtx
// binding and the netlink<->YAML codec.
//
// Usage:
//
//	# Serve the demo gRPC target behind the flavor gate
//	rpcsecd serve --config /path/to/config.yaml
//
//	# Show version information
//	rpcsecd version
//
//	# List the registered client policies
//	rpcsecd policy list
//
//	# Bind a throwaway import to a flavor and show the CliCtx it mints
//	rpcsecd ctx inspect mds-0001
//
//	# Decode a JSON file of netlink rounds to YAML
//	rpcsecd codec decode --in rounds.json
//
// For complete documentation, see: https://github.com/clusterfs/rpcsec
package main

func main() {
	Execute()
}
