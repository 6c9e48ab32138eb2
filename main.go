// Command kitchen builds and validates the StatusKitchen recipe index.
package main

import "github.com/papapumpkin/kitchen/cmd"

func main() {
	cmd.Execute()
}
