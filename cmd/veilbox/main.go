// Package main provides the veilbox CLI for capability authorization
// tracking of sandboxed workloads.
package main

func main() {
	Execute()
}
