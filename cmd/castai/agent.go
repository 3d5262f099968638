package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/castai/pulumi-castai/internal/logging"
	"github.com/castai/pulumi-castai/pkg/agent"
	"github.com/castai/pulumi-castai/pkg/audit"
	"github.com/castai/pulumi-castai/pkg/config"
)

func (c *cli) agentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage the CAST AI in-cluster components",
	}
	cmd.AddCommand(c.agentInstallCommand())
	return cmd
}

func (c *cli) agentInstallCommand() *cobra.Command {
	// flag values are read back through viper into c.opts.Agent
	defaults := config.NewDefaultOptions().Agent
	flagOpts := defaults

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install or upgrade the CAST AI agent helm releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			agentOpts := c.opts.Agent

			restCfg, err := buildKubeConfig(c.opts.Kubeconfig)
			if err != nil {
				return err
			}
			if c.opts.TokenFromSecret {
				clientset, err := kubernetes.NewForConfig(restCfg)
				if err != nil {
					return fmt.Errorf("failed to create Kubernetes client: %w", err)
				}
				if err := c.opts.LoadTokenFromSecret(ctx, clientset); err != nil {
					return err
				}
			}

			ctrl.SetLogger(logging.NewLogrLogger(c.logger))
			kube, err := agent.NewKubeClient(restCfg)
			if err != nil {
				return fmt.Errorf("failed to create Kubernetes client: %w", err)
			}
			auditLogger := audit.NewAuditLogger(&audit.AuditLoggerConfig{
				Enabled:      true,
				Logger:       c.logger,
				DefaultActor: "castai-iac",
				Stack:        c.opts.Stack,
			})
			defer auditLogger.Close()

			installer := agent.NewInstaller(agent.NewHelmRunner(c.opts.Kubeconfig, c.logger), kube, c.logger, auditLogger)
			c.logger.Info("Installing CAST AI agent",
				zap.String("cluster", agentOpts.ClusterID),
				zap.String("namespace", agentOpts.Namespace),
				zap.String("kubeconfig", getKubeconfigPath(c.opts.Kubeconfig)),
				zap.Bool("readOnly", agentOpts.ReadOnly))

			releases, err := installer.Install(ctx, agent.Options{
				Namespace:    agentOpts.Namespace,
				ClusterID:    agentOpts.ClusterID,
				Provider:     agentOpts.Provider,
				APIURL:       c.opts.APIURL,
				APIToken:     c.opts.APIToken,
				ChartVersion: agentOpts.ChartVersion,
				ReadOnly:     agentOpts.ReadOnly,
				ValuesFiles:  agentOpts.ValuesFiles,
				Timeout:      agentOpts.WaitTimeout,
			})
			c.printReleases(releases)
			if err != nil {
				return err
			}

			if agentOpts.Wait {
				return installer.WaitReady(ctx, agentOpts.Namespace, agentOpts.WaitTimeout)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&flagOpts.Namespace, "agent-namespace", defaults.Namespace, "Namespace the CAST AI charts are installed into")
	fs.StringVar(&flagOpts.ClusterID, "agent-cluster-id", defaults.ClusterID, "CAST AI id of the cluster")
	fs.StringVar(&flagOpts.Provider, "agent-provider", defaults.Provider, "Cloud of the cluster (eks, gke, aks)")
	fs.StringVar(&flagOpts.ChartVersion, "agent-chart-version", defaults.ChartVersion, "Chart version to pin, latest when empty")
	fs.BoolVar(&flagOpts.ReadOnly, "agent-read-only", defaults.ReadOnly, "Install only castai-agent in read-only mode")
	fs.StringSliceVar(&flagOpts.ValuesFiles, "agent-values", defaults.ValuesFiles, "YAML values files keyed by release name")
	fs.BoolVar(&flagOpts.Wait, "agent-wait", defaults.Wait, "Wait for the castai-agent deployment to become available")
	fs.DurationVar(&flagOpts.WaitTimeout, "agent-wait-timeout", defaults.WaitTimeout, "Timeout of helm operations and of --agent-wait")
	return cmd
}

func (c *cli) printReleases(releases []agent.Release) {
	if len(releases) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Release", "Chart", "Version"})
	for _, rel := range releases {
		version := rel.Version
		if version == "" {
			version = "latest"
		}
		table.Append([]string{rel.Name, rel.Chart, version})
	}
	table.Render()
}
