// Package cli implements the clappy command.
//
//	clappy                      interactive client (stdin is a terminal)
//	clappy < program.clappy     script read from stdin
//	clappy smoke.clappy         script file
//	clappy 'scripts/**/*.clappy' every matching script file, in order
//	clappy "use foo local; get /things"
//	                            static program
//
// Script files are trimmed line by line and lines starting with '#' are
// dropped. A failing command ends a script or static program with exit code
// 1; the interactive client prints the error and prompts again.
//
// Configuration is loaded with package cliconfig and merged into the root
// session before the first command runs.
package cli
