package main

import "github.com/openvdb-build/vdbci/cmd/vdbci/internal"

func main() {
	internal.Execute()
}
