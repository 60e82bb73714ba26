// Package gateway is the public entry point for evaluating JavaScript from
// Go: Eval runs code, Call applies a global function to host arguments.
package gateway
