package launcher

import (
	"fmt"

	"github.com/docker/go-connections/nat"
)

// Profile selects which service set is started.
type Profile string

const (
	ProfileBasic       Profile = "basic"
	ProfileDevelopment Profile = "development"
	ProfileFull        Profile = "full"
)

// ParseProfile validates an operator-supplied profile name.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case ProfileBasic, ProfileDevelopment, ProfileFull:
		return Profile(s), nil
	default:
		return "", fmt.Errorf("unknown profile %q (want basic, development, or full)", s)
	}
}

// Service is one compose service with its published port specs.
type Service struct {
	Name  string
	Ports []string
}

var basicServices = []Service{
	{Name: "postgres", Ports: []string{"127.0.0.1:5432:5432"}},
	{Name: "redis", Ports: []string{"127.0.0.1:6379:6379"}},
	{Name: "bot", Ports: []string{"127.0.0.1:8080:8080"}},
	{Name: "nginx", Ports: []string{"80:80", "443:443"}},
}

var developmentServices = append(basicServices[:len(basicServices):len(basicServices)],
	Service{Name: "dashboard", Ports: []string{"127.0.0.1:8000:8000"}},
	Service{Name: "adminer", Ports: []string{"127.0.0.1:8081:8080"}},
)

// fullServices adds the profile-gated monitoring and analysis services.
// They must be named in the up invocation: compose only starts eligible
// services that are explicitly requested when a service list is given.
var fullServices = append(developmentServices[:len(developmentServices):len(developmentServices)],
	Service{Name: "prometheus", Ports: []string{"127.0.0.1:9090:9090"}},
	Service{Name: "grafana", Ports: []string{"127.0.0.1:3000:3000"}},
	Service{Name: "jupyter", Ports: []string{"127.0.0.1:8888:8888"}},
)

// Services returns the named service set for the profile, in start order.
func (p Profile) Services() []Service {
	switch p {
	case ProfileDevelopment:
		return developmentServices
	case ProfileFull:
		return fullServices
	default:
		return basicServices
	}
}

// FeatureProfiles returns the compose feature profiles layered on top of the
// named services (monitoring and analysis tooling for the full profile).
func (p Profile) FeatureProfiles() []string {
	if p == ProfileFull {
		return []string{"monitoring", "analysis"}
	}
	return nil
}

// ValidatePorts checks every published port spec parses. Run once at
// startup; a bad spec here is a programming error surfaced early.
func ValidatePorts(services []Service) error {
	for _, svc := range services {
		for _, spec := range svc.Ports {
			if _, err := nat.ParsePortSpec(spec); err != nil {
				return fmt.Errorf("service %s has invalid port spec %q: %w", svc.Name, spec, err)
			}
		}
	}
	return nil
}
