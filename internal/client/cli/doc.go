// Package cli is the LexBridge terminal client.
//
// Every view of the marketplace is a cobra command: authentication, the
// client's cases, the professional workspace, the administration screens
// and the questionnaire wizard. Each command declares the route it belongs
// to and the root command checks it against the signed-in role before the
// command runs, redirecting to the role's home view otherwise.
//
// The "shell" command keeps a read-eval-print loop open over the same
// command tree.
package cli
