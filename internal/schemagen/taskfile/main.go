// Command taskfile regenerates the embedded taskfile JSON schema.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/strabs/doit/pkg/taskfile"
)

var outFile = flag.String("o", "pkg/taskfile/taskfile.v1beta1.json", "Output file for the generated schema")

func main() {
	flag.Parse()

	r := &jsonschema.Reflector{
		DoNotReference: false,
	}

	err := r.AddGoComments("github.com/strabs/doit", "./pkg/taskfile")
	if err != nil {
		log.Fatalf("add go comments: %v", err)
	}

	jss := r.Reflect(&taskfile.Taskfile{})

	jsData, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	err = os.WriteFile(*outFile, append(jsData, '\n'), 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
