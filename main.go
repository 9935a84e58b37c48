// Command armsim is a placeholder entry point.
//
// For the full CLI, use: go run ./cmd/armsim
package main

import "fmt"

func main() {
	fmt.Println("armsim - ARMv8 instruction decode-and-execute simulator")
	fmt.Println("Run 'go run ./cmd/armsim run <program>' for the full CLI.")
}
