// Package agent installs the CAST AI in-cluster components with helm.
package agent

import (
	"fmt"
	"os"
	"time"

	"github.com/blang/semver/v4"
	"helm.sh/helm/v3/pkg/chartutil"
	"sigs.k8s.io/yaml"
)

const (
	// RepoURL is the CAST AI helm repository
	RepoURL = "https://castai.github.io/helm-charts"

	// DefaultNamespace is where the charts are installed
	DefaultNamespace = "castai-agent"

	// AgentRelease is the release name of the castai-agent chart
	AgentRelease = "castai-agent"

	// DefaultTimeout bounds a single helm operation
	DefaultTimeout = 5 * time.Minute
)

// Supported values of Options.Provider
var providers = map[string]bool{"eks": true, "gke": true, "aks": true}

// Options describes the agent installation of one cluster
type Options struct {
	Namespace string
	ClusterID string
	Provider  string
	APIURL    string

	// APIToken is the organization token used by the cluster controller and
	// the pod pinner
	APIToken string

	// AgentToken is the cluster token used by castai-agent. Falls back to
	// APIToken.
	AgentToken string

	// ChartVersion pins every chart. Empty installs the latest version.
	ChartVersion string

	// ReadOnly installs only castai-agent in read-only mode
	ReadOnly bool

	// ValuesFiles are YAML documents keyed by release name, e.g.
	//
	//	castai-agent:
	//	  resources:
	//	    requests:
	//	      cpu: 100m
	//
	// Later files win over earlier ones and both win over generated values.
	ValuesFiles []string

	Timeout time.Duration
}

// Release is one helm release to upgrade or install
type Release struct {
	Name    string
	Chart   string
	Version string
	Values  map[string]any

	// Wait blocks the helm operation until the release resources are ready
	Wait bool
}

func (o *Options) withDefaults() {
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.AgentToken == "" {
		o.AgentToken = o.APIToken
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
}

// Validate checks the options before anything is installed
func (o *Options) Validate() error {
	if !providers[o.Provider] {
		return fmt.Errorf("unsupported provider %q, must be one of: eks, gke, aks", o.Provider)
	}
	if o.APIURL == "" {
		return fmt.Errorf("API URL cannot be empty")
	}
	if o.APIToken == "" && o.AgentToken == "" {
		return fmt.Errorf("an API token is required")
	}
	if !o.ReadOnly && o.ClusterID == "" {
		return fmt.Errorf("cluster ID is required unless the agent is read-only")
	}
	if o.ChartVersion != "" {
		if _, err := semver.ParseTolerant(o.ChartVersion); err != nil {
			return fmt.Errorf("invalid chart version %q: %w", o.ChartVersion, err)
		}
	}
	return nil
}

// chartVersion normalizes a semver version the way the chart index lists it
func chartVersion(v string) string {
	if v == "" {
		return ""
	}
	parsed, err := semver.ParseTolerant(v)
	if err != nil {
		return v
	}
	return parsed.String()
}

// Releases returns the releases to install in order, castai-agent first
func Releases(opts Options) ([]Release, error) {
	opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	version := chartVersion(opts.ChartVersion)

	agentValues := map[string]any{
		"provider":        opts.Provider,
		"createNamespace": false,
		"apiURL":          opts.APIURL,
		"apiKey":          opts.AgentToken,
	}
	if opts.ClusterID != "" {
		agentValues["clusterID"] = opts.ClusterID
	}
	if opts.ReadOnly {
		agentValues["readOnlyMode"] = true
	}
	releases := []Release{{
		Name: AgentRelease, Chart: "castai-agent", Version: version, Values: agentValues, Wait: true,
	}}

	if !opts.ReadOnly {
		releases = append(releases,
			Release{
				Name: "cluster-controller", Chart: "castai-cluster-controller", Version: version,
				Values: map[string]any{
					"castai": map[string]any{
						"clusterID": opts.ClusterID,
						"apiURL":    opts.APIURL,
						"apiKey":    opts.APIToken,
					},
				},
			},
			Release{
				Name: "castai-spot-handler", Chart: "castai-spot-handler", Version: version,
				Values: map[string]any{
					"castai": map[string]any{
						"clusterID": opts.ClusterID,
						"provider":  opts.Provider,
					},
				},
			},
			Release{
				Name: "castai-evictor", Chart: "castai-evictor", Version: version,
				Values: map[string]any{"replicaCount": 0},
			},
			Release{
				Name: "castai-pod-pinner", Chart: "castai-pod-pinner", Version: version,
				Values: map[string]any{
					"castai": map[string]any{
						"apiKey":    opts.APIToken,
						"clusterID": opts.ClusterID,
					},
					"replicaCount": 0,
				},
			},
		)
	}

	for _, file := range opts.ValuesFiles {
		overrides, err := readValuesFile(file)
		if err != nil {
			return nil, err
		}
		for i := range releases {
			override, ok := overrides[releases[i].Name].(map[string]any)
			if !ok {
				continue
			}
			releases[i].Values = chartutil.CoalesceTables(override, releases[i].Values)
		}
	}
	return releases, nil
}

func readValuesFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values file %s: %w", path, err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse values file %s: %w", path, err)
	}
	return values, nil
}
