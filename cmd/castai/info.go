package main

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/castai/pulumi-castai/internal/examples"
	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func (c *cli) tokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "List the resource and data source tokens",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			table := tablewriter.NewWriter(c.out)
			table.SetHeader([]string{"Token", "Kind", "Terraform", "Description"})
			for _, info := range tokens.All() {
				table.Append([]string{info.Token, string(info.Kind), info.TFName, info.Description})
			}
			table.Render()
			return nil
		},
	}
}

func (c *cli) programsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "programs",
		Short: "List the programs up and preview can run",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			table := tablewriter.NewWriter(c.out)
			table.SetHeader([]string{"Program", "Description"})
			for _, name := range examples.Names() {
				e, _ := examples.Lookup(name)
				table.Append([]string{e.Name, e.Description})
			}
			table.Render()
			return nil
		},
	}
}

func (c *cli) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <token>",
		Short: "Print the JSON schema of the arguments of a resource or data source",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			token := args[0]
			// Terraform names are accepted too
			if !strings.Contains(token, ":") {
				if info, ok := tokens.ResourceByTFName(token); ok {
					token = info.Token
				} else if info, ok := tokens.DataSourceByTFName(token); ok {
					token = info.Token
				}
			}
			schema, err := castai.ArgsSchema(token)
			if err != nil {
				return err
			}
			return c.printJSON(schema)
		},
	}
}

func (c *cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(c.out, "CAST AI infrastructure as code\n")
			fmt.Fprintf(c.out, "  Version:    %s\n", Version)
			fmt.Fprintf(c.out, "  Commit:     %s\n", Commit)
			fmt.Fprintf(c.out, "  Build Date: %s\n", BuildDate)
		},
	}
}
