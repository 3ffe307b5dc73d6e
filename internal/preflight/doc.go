// Package preflight inspects a repository before an Azure deployment.
//
// It detects an azd project (azure.yaml), discovers Bicep templates and their
// parameter files, reads each template's targetScope, checks that the az, azd
// and bicep tools are on PATH, and builds the bicep build and what-if commands
// that validate each template. With Execute set the commands are run, falling
// back to the ProviderNoRbac validation level when a what-if fails. The
// findings are rendered as a Markdown report.
package preflight
