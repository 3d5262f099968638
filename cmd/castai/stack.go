package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/itchyny/gojq"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"

	"github.com/castai/pulumi-castai/internal/examples"
	"github.com/castai/pulumi-castai/pkg/audit"
	"github.com/castai/pulumi-castai/pkg/mock"
	"github.com/castai/pulumi-castai/pkg/provider"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/state"
	"github.com/castai/pulumi-castai/pkg/tokens"
	"github.com/castai/pulumi-castai/pkg/tracing"
)

const flushTimeout = 2 * time.Second

// stack holds what a stack operation runs with
type stack struct {
	runOpts runtime.RunOptions
	store   *state.Store
	tracer  *tracing.Tracer
	audit   *audit.AuditLogger
	closer  func() error
}

func (s *stack) Close() {
	s.tracer.Flush(flushTimeout)
	s.tracer.Close()
	if s.closer != nil {
		_ = s.closer()
	}
	// closes the store, which is the audit sink
	_ = s.audit.Close()
}

func (c *cli) openStore() (*state.Store, error) {
	store, err := state.Open(c.opts.StateFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open state %s: %w", c.opts.StateFile, err)
	}
	return store, nil
}

func (c *cli) openStack(ctx context.Context) (*stack, error) {
	store, err := c.openStore()
	if err != nil {
		return nil, err
	}

	tracer, err := tracing.NewTracer(c.opts.TracingConfig(Version), c.logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	auditLogger := audit.NewAuditLogger(&audit.AuditLoggerConfig{
		Enabled:      true,
		Logger:       c.logger,
		DefaultActor: "castai-iac",
		Stack:        c.opts.Stack,
		EventSinks:   []audit.EventSink{store},
	})

	s := &stack{store: store, tracer: tracer, audit: auditLogger}
	p, err := c.newProvider(ctx, tracer)
	if err != nil {
		s.Close()
		return nil, err
	}
	if closer, ok := p.(interface{ Close() error }); ok {
		s.closer = closer.Close
	}

	s.runOpts = runtime.RunOptions{
		Project:  c.opts.Project,
		Stack:    c.opts.Stack,
		Provider: p,
		Config:   c.opts.ProviderConfig(),
		Logger:   c.logger,
		Store:    store,
		Tracer:   tracing.NewOperationTracer(tracer, c.opts.Project, c.opts.Stack),
		Audit:    auditLogger,
	}
	return s, nil
}

func (c *cli) newProvider(ctx context.Context, tracer *tracing.Tracer) (resource.Provider, error) {
	if c.opts.Mock {
		c.logger.Info("Using the mock provider")
		return mock.NewProvider(), nil
	}

	if c.opts.TokenFromSecret {
		restCfg, err := buildKubeConfig(c.opts.Kubeconfig)
		if err != nil {
			return nil, err
		}
		clientset, err := kubernetes.NewForConfig(restCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
		}
		if err := c.opts.LoadTokenFromSecret(ctx, clientset); err != nil {
			return nil, err
		}
		c.logger.Info("Loaded CAST AI credentials from secret",
			zap.String("secret", c.opts.SecretNamespace+"/"+c.opts.SecretName),
			zap.String("kubeconfig", getKubeconfigPath(c.opts.Kubeconfig)))
	}

	var transport *tracing.HTTPTransport
	if tracer.IsEnabled() {
		transport = tracing.NewHTTPTransport(tracer, nil)
	}
	return provider.New(provider.Options{
		ClientOptions: c.opts.ClientOptions(c.logger, transport),
		Logger:        c.logger,
	}), nil
}

// programEnv builds the example environment. Cloud discovery clients are
// only created when requested.
func (c *cli) programEnv(discover bool) *examples.Env {
	env := examples.NewEnv()
	if !discover {
		return env
	}
	if d, err := examples.NewAWSDiscovery(env.Settings.AWSRegion); err != nil {
		c.logger.Warn("AWS discovery unavailable", zap.Error(err))
	} else {
		env.AWS = d
	}
	if d, err := examples.NewAzureDiscovery(env.Settings); err != nil {
		c.logger.Warn("Azure discovery unavailable", zap.Error(err))
	} else {
		env.Azure = d
	}
	return env
}

func (c *cli) runProgram(cmd *cobra.Command, name string, discover, dryRun bool) error {
	program, err := examples.Bind(name, c.programEnv(discover))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := c.openStack(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	run := runtime.Run
	if dryRun {
		run = runtime.Preview
	}
	result, err := run(ctx, s.runOpts, program)
	if err != nil {
		return err
	}

	if dryRun {
		c.printPlan(result)
	} else {
		c.printResources(result.Resources)
	}
	c.printSummary(result)
	return nil
}

func (c *cli) upCommand() *cobra.Command {
	var discover bool
	cmd := &cobra.Command{
		Use:   "up <program>",
		Short: "Create or update the resources of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProgram(cmd, args[0], discover, false)
		},
	}
	cmd.Flags().BoolVar(&discover, "discover", false, "Discover cloud facts through the AWS and Azure APIs")
	return cmd
}

func (c *cli) previewCommand() *cobra.Command {
	var discover bool
	cmd := &cobra.Command{
		Use:   "preview <program>",
		Short: "Show the changes up would make",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProgram(cmd, args[0], discover, true)
		},
	}
	cmd.Flags().BoolVar(&discover, "discover", false, "Discover cloud facts through the AWS and Azure APIs")
	return cmd
}

func (c *cli) destroyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Delete every resource of the stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openStack(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := runtime.Destroy(cmd.Context(), s.runOpts); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Stack %s destroyed\n", c.opts.Stack)
			return nil
		},
	}
}

func (c *cli) outputsCommand() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "Print the stack outputs as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			exports, err := store.Exports(cmd.Context(), c.opts.Stack)
			if err != nil {
				return fmt.Errorf("failed to read outputs: %w", err)
			}
			if query == "" {
				return c.printJSON(exports)
			}
			results, err := queryOutputs(exports, query)
			if err != nil {
				return err
			}
			for _, r := range results {
				if err := c.printJSON(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "jq expression applied to the outputs")
	return cmd
}

// queryOutputs runs a jq expression over exports
func queryOutputs(exports map[string]any, expr string) ([]any, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}

	// gojq only accepts plain JSON values
	raw, err := json.Marshal(exports)
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, err
	}

	var results []any
	iter := q.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("query %q failed: %w", expr, err)
		}
		results = append(results, v)
	}
	return results, nil
}

func (c *cli) resourcesCommand() *cobra.Command {
	var showOutputs bool
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List the resources of the stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stored, err := store.ListResources(cmd.Context(), c.opts.Stack)
			if err != nil {
				return fmt.Errorf("failed to list resources: %w", err)
			}
			if showOutputs {
				outputs := make(map[string]resource.PropertyMap, len(stored))
				for _, r := range stored {
					outputs[r.URN] = masked(r.Token, r.Outputs)
				}
				return c.printJSON(outputs)
			}
			table := tablewriter.NewWriter(c.out)
			table.SetHeader([]string{"Token", "Name", "ID", "Updated"})
			for _, r := range stored {
				table.Append([]string{r.Token, r.Name, r.ID, r.UpdatedAt.Format(time.RFC3339)})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&showOutputs, "outputs", false, "Print the outputs of every resource as JSON, secrets masked")
	return cmd
}

func (c *cli) printPlan(result *runtime.Result) {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Op", "Token", "Name"})
	for _, step := range result.Plan {
		table.Append([]string{string(step.Op), step.Token, step.Name})
	}
	table.Render()
}

func (c *cli) printResources(resources []*runtime.RegisteredResource) {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Op", "Token", "Name", "ID"})
	for _, r := range resources {
		table.Append([]string{string(r.Operation), r.Token, r.Name, r.ID})
	}
	table.Render()
}

func (c *cli) printSummary(result *runtime.Result) {
	summary := result.Summary()
	fmt.Fprintf(c.out, "Resources: %d to create, %d to update, %d unchanged, %d to delete\n",
		summary[runtime.OpCreate], summary[runtime.OpUpdate], summary[runtime.OpSame], summary[runtime.OpDelete])
	if len(result.Exports) == 0 {
		return
	}

	names := make([]string, 0, len(result.Exports))
	for name := range result.Exports {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(c.out, "Outputs:")
	for _, name := range names {
		fmt.Fprintf(c.out, "  %s: %v\n", name, result.Exports[name])
	}
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// masked hides secret properties of token
func masked(token string, props resource.PropertyMap) resource.PropertyMap {
	info, ok := tokens.Lookup(token)
	if !ok || len(info.Secrets) == 0 {
		return props
	}
	return props.Mask(info.Secrets)
}
