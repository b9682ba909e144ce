// Package main is the entry point for worldgen.
//
//	@title			Worldgen API
//	@version		1.0
//	@description	Turns free-text world descriptions into validated terrain generator configurations.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:5000
//	@BasePath		/
package main

func main() {
	Execute()
}
