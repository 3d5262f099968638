package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	helmdriver "helm.sh/helm/v3/pkg/storage/driver"
)

// Helm actions reported by a ReleaseRunner
const (
	ActionInstall = "install"
	ActionUpgrade = "upgrade"
)

// ReleaseRunner upgrades a release, installing it when it does not exist,
// and reports which of the two it did.
type ReleaseRunner interface {
	Apply(ctx context.Context, namespace string, rel Release, timeout time.Duration) (string, error)
}

// HelmRunner is the ReleaseRunner backed by the helm SDK
type HelmRunner struct {
	settings *cli.EnvSettings
	logger   *zap.Logger
}

// NewHelmRunner returns a runner using kubeconfig, or the in-cluster
// configuration when kubeconfig is empty.
func NewHelmRunner(kubeconfig string, logger *zap.Logger) *HelmRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := cli.New()
	if kubeconfig != "" {
		settings.KubeConfig = kubeconfig
	}
	return &HelmRunner{settings: settings, logger: logger.Named("helm")}
}

// Apply upgrades rel; if the release doesn't exist, falls back to install
func (h *HelmRunner) Apply(ctx context.Context, namespace string, rel Release, timeout time.Duration) (string, error) {
	cfg := new(action.Configuration)
	debug := h.logger.Sugar().Debugf
	if err := cfg.Init(h.settings.RESTClientGetter(), namespace, "secret", debug); err != nil {
		return "", fmt.Errorf("init helm configuration: %w", err)
	}

	cpo := action.ChartPathOptions{RepoURL: RepoURL, Version: rel.Version}
	chartPath, err := cpo.LocateChart(rel.Chart, h.settings)
	if err != nil {
		return "", fmt.Errorf("locate %s chart: %w", rel.Chart, err)
	}
	ch, err := loader.Load(chartPath)
	if err != nil {
		return "", fmt.Errorf("load %s chart: %w", rel.Chart, err)
	}

	up := action.NewUpgrade(cfg)
	up.Namespace = namespace
	up.Version = rel.Version
	up.CleanupOnFail = true
	up.Wait = rel.Wait
	up.Timeout = timeout
	if _, err := up.RunWithContext(ctx, rel.Name, ch, rel.Values); err != nil {
		if !errors.Is(err, helmdriver.ErrNoDeployedReleases) {
			return ActionUpgrade, fmt.Errorf("helm upgrade %s: %w", rel.Name, err)
		}
		in := action.NewInstall(cfg)
		in.Namespace = namespace
		in.ReleaseName = rel.Name
		in.Version = rel.Version
		in.CreateNamespace = true
		in.Wait = rel.Wait
		in.Timeout = timeout
		if _, err := in.RunWithContext(ctx, ch, rel.Values); err != nil {
			return ActionInstall, fmt.Errorf("helm install %s: %w", rel.Name, err)
		}
		return ActionInstall, nil
	}
	return ActionUpgrade, nil
}
