package service

import "github.com/wallpaperhub/wallpaper-server/internal/versionpolicy"

// VersionService serves the app update policy.
type VersionService struct {
	source *versionpolicy.Source
}

// NewVersionService creates a version service backed by a policy source.
func NewVersionService(source *versionpolicy.Source) *VersionService {
	return &VersionService{source: source}
}

// Check returns the policy currently in effect.
func (s *VersionService) Check() versionpolicy.Policy {
	return s.source.Current()
}
