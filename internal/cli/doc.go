// Package cli wires the example-app commands.
//
// Running the binary without a subcommand serves the HTTP API. The other
// commands are operator tooling shipped in the same image:
//
//	probe      poll a readiness URL until it answers 2xx
//	preflight  inspect Bicep templates before an Azure deployment
//	set-image  pin image tags or digests in a kustomization file
package cli
