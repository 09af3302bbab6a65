// Command foundry plans factory production chains.
package main

import "github.com/papapumpkin/foundry/cmd"

func main() {
	cmd.Execute()
}
