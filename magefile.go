//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
var Default = Build

// Build compiles tbview and tbgen into ./bin.
func Build() error {
	mg.Deps(BuildViewer, BuildGenerator)
	fmt.Println("Compilation finished")
	return nil
}

func BuildViewer() error {
	fmt.Println("Building tbview executable...")
	return goCmd("build", "-o", "./bin/tbview", "./cmd/tbview")
}

func BuildGenerator() error {
	fmt.Println("Building tbgen executable...")
	return goCmd("build", "-o", "./bin/tbgen", "./cmd/tbgen")
}

// Test runs the unit tests. HDF5 and DuckDB need cgo.
func Test() error {
	return goCmd("test", "./...")
}

func Vet() error {
	return goCmd("vet", "./...")
}

// Sample writes a simulated run to ./run_sim.h5.
func Sample() error {
	mg.Deps(BuildGenerator)
	return run("./bin/tbgen", "-o", "run_sim.h5")
}

func goCmd(args ...string) error {
	return run("go", args...)
}

// run executes name with the cgo flags of the calling environment so the
// HDF5 headers and libraries are found.
func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", os.Getenv("CGO_LDFLAGS")),
		fmt.Sprintf("CGO_CFLAGS=%s", os.Getenv("CGO_CFLAGS")))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
