package schema

import (
	"encoding/json"

	"github.com/bornholm/bingsearch/pkg/search"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func Schema() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the search results",
		Action: func(cliCtx *cli.Context) error {
			schema := jsonschema.Reflect(&search.Result{})

			data, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return errors.WithStack(err)
			}

			if _, err := cliCtx.App.Writer.Write(append(data, '\n')); err != nil {
				return errors.WithStack(err)
			}

			return nil
		},
	}
}
