package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/maruel/pathdb/pathstore"
	"gopkg.in/yaml.v3"
)

// print writes v to stdout in the configured format.
func (a *app) print(v *pathstore.Value) error {
	if a.cfg.Format == "yaml" {
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		_, err = a.stdout.Write(out)
		return err
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	if a.cfg.Indent != "" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", a.cfg.Indent); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	_, err = fmt.Fprintf(a.stdout, "%s\n", data)
	return err
}

func (a *app) printJSON(x any) error {
	data, err := json.MarshalIndent(x, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "%s\n", data)
	return err
}
