// testgen is a simple test program to demonstrate the staged builder generator.
// Run: go run ./compiler/gen/cmd/testgen
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syssam/stagegen/compiler/diag"
	"github.com/syssam/stagegen/compiler/gen"
	"github.com/syssam/stagegen/compiler/load"
	"github.com/syssam/stagegen/schema"
)

func main() {
	// Create a temp directory for output
	outDir, err := os.MkdirTemp("", "stagegen-test-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Output directory: %s\n", outDir)

	pkg := load.PackageRef{Name: "model", Path: "example.com/test/model"}
	targets := []*load.Target{
		{
			Name: "User",
			Pkg:  pkg,
			Dir:  outDir,
			Imports: []load.Import{
				{Name: "time", Path: "time"},
			},
			Fields: []*load.Field{
				{Name: "Name", Type: "string", Tag: "mandatory"},
				{Name: "Email", Type: "string"},
				{Name: "Age", Type: "int", Tag: "optional,default=18"},
				{Name: "CreatedAt", Type: "time.Time", Tag: "optional,default=time.Now()"},
				{Name: "Groups", Type: "[]string", Requiredness: schema.Collection},
			},
		},
		{
			Name: "Car",
			Pkg:  pkg,
			Dir:  outDir,
			Fields: []*load.Field{
				{Name: "Model", Type: "string"},
				{Name: "Owner", Type: "*User"},
			},
		},
		{
			// Fails: a mandatory field cannot declare a default.
			Name: "Group",
			Pkg:  pkg,
			Dir:  outDir,
			Pos:  schema.Position{Filename: "group.go", Line: 1},
			Fields: []*load.Field{
				{Name: "Name", Type: "string", Tag: "mandatory,default=\"admins\"", Pos: schema.Position{Filename: "group.go", Line: 2, Column: 2}},
			},
		},
	}

	g, err := gen.NewGenerator(gen.WithWorkers(2))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create generator: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Generating staged builders...")
	ctx := context.Background()
	res, err := g.Round(ctx, load.Descriptors(targets))
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}
	if err := g.Write(ctx, res); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}
	if len(res.Diagnostics) > 0 {
		fmt.Println("\nDiagnostics:")
		_ = diag.Pretty(os.Stdout, res.Diagnostics, diag.PrettyOpts{})
	}

	// List generated files
	fmt.Println("\nGenerated files:")
	for _, a := range res.Artifacts {
		fmt.Printf("  %s (%d bytes)\n", a.Filename, len(a.Source))
	}

	// Show sample output
	fmt.Println("\n--- Sample: user_builder.go ---")
	content, err := os.ReadFile(filepath.Join(outDir, "user_builder.go"))
	if err == nil {
		os.Stdout.Write(content)
	}

	fmt.Printf("\nTo inspect generated code: ls -la %s\n", outDir)
	fmt.Println("Done!")
}
