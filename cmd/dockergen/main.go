// Command dockergen renders component Dockerfiles from a version descriptor.
package main

import "github.com/cameronsjo/dockergen/internal/cmd"

func main() {
	cmd.Execute()
}
