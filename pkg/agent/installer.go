package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/castai/pulumi-castai/internal/logging"
	"github.com/castai/pulumi-castai/pkg/audit"
	"github.com/castai/pulumi-castai/pkg/metrics"
)

// DefaultPollInterval is how often WaitReady checks the agent deployment
const DefaultPollInterval = 3 * time.Second

// Installer applies the CAST AI releases of a cluster
type Installer struct {
	runner       ReleaseRunner
	kube         ctrlclient.Client
	logger       *zap.Logger
	audit        *audit.AuditLogger
	pollInterval time.Duration
}

// NewInstaller creates an installer. kube is only needed by WaitReady and
// auditLogger may be nil.
func NewInstaller(runner ReleaseRunner, kube ctrlclient.Client, logger *zap.Logger, auditLogger *audit.AuditLogger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{
		runner:       runner,
		kube:         kube,
		logger:       logger.Named("agent"),
		audit:        auditLogger,
		pollInterval: DefaultPollInterval,
	}
}

// NewKubeClient builds the controller-runtime client WaitReady reads
// deployments with
func NewKubeClient(cfg *rest.Config) (ctrlclient.Client, error) {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, err
	}
	return ctrlclient.New(cfg, ctrlclient.Options{Scheme: scheme})
}

// Install applies every release of opts in order and stops at the first
// failure. The releases applied so far are returned with the error.
func (i *Installer) Install(ctx context.Context, opts Options) ([]Release, error) {
	opts.withDefaults()
	releases, err := Releases(opts)
	if err != nil {
		return nil, err
	}

	applied := make([]Release, 0, len(releases))
	for _, rel := range releases {
		action, err := i.runner.Apply(ctx, opts.Namespace, rel, opts.Timeout)
		if action == "" {
			action = ActionInstall
		}
		metrics.RecordAgentRelease(rel.Name, action, err)
		i.audit.LogAgentRelease(ctx, rel.Name, opts.Namespace, action, rel.Version, err)
		if err != nil {
			i.logger.Error("CAST AI helm release failed",
				zap.String("release", rel.Name),
				zap.String("action", action),
				zap.Error(err))
			return applied, err
		}
		logging.LogAgentRelease(i.logger, action, rel.Name, opts.Namespace, rel.Version)
		applied = append(applied, rel)
	}
	return applied, nil
}

// WaitReady polls the castai-agent deployment until it has an available
// replica or timeout passes
func (i *Installer) WaitReady(ctx context.Context, namespace string, timeout time.Duration) error {
	if i.kube == nil {
		return fmt.Errorf("agent installer has no kubernetes client")
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	key := types.NamespacedName{Namespace: namespace, Name: AgentRelease}

	err := wait.PollUntilContextTimeout(ctx, i.pollInterval, timeout, true, func(ctx context.Context) (bool, error) {
		var dep appsv1.Deployment
		if err := i.kube.Get(ctx, key, &dep); err != nil {
			if !apierrors.IsNotFound(err) {
				i.logger.Debug("Failed to read agent deployment", zap.Error(err))
			}
			// transient error, keep polling
			return false, nil
		}
		return dep.Status.AvailableReplicas >= 1, nil
	})
	if err != nil {
		return fmt.Errorf("timeout waiting for deployment %s ready: %w", key, err)
	}
	i.logger.Info("CAST AI agent is ready", zap.String("namespace", namespace))
	return nil
}
