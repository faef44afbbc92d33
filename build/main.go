package main

import (
	"os"
	"os/exec"

	"github.com/goyek/goyek/v2"
)

// goCmd runs the go tool with args, streaming its output.
func goCmd(a *goyek.A, args ...string) {
	a.Logf("go %v", args)
	cmd := exec.CommandContext(a.Context(), "go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		a.Error(err)
	}
}

var vet = goyek.Define(goyek.Task{
	Name:  "vet",
	Usage: "Run go vet on all packages",
	Action: func(a *goyek.A) {
		goCmd(a, "vet", "./...")
	},
})

var test = goyek.Define(goyek.Task{
	Name:  "test",
	Usage: "Run all tests with the race detector",
	Action: func(a *goyek.A) {
		goCmd(a, "test", "-race", "-count=1", "./...")
	},
})

var buildBin = goyek.Define(goyek.Task{
	Name:  "build",
	Usage: "Build the benchbuild binary into bin/",
	Action: func(a *goyek.A) {
		goCmd(a, "build", "-o", "bin/benchbuild", "./cmd/benchbuild")
	},
})

var all = goyek.Define(goyek.Task{
	Name:  "all",
	Usage: "vet, test and build",
	Deps:  goyek.Deps{vet, test, buildBin},
})

func main() {
	goyek.SetDefault(all)
	goyek.Main(os.Args[1:])
}
