package services

import (
	"fmt"

	"github.com/deploymenttheory/go-dexscan/internal/enumerator"
)

// containerService implements ContainerService
type containerService struct {
	enumerator *enumerator.Enumerator
}

// NewContainerService creates a container service backed by e
func NewContainerService(e *enumerator.Enumerator) ContainerService {
	return &containerService{enumerator: e}
}

// Classes implements ContainerService
func (s *containerService) Classes(path string) ([]string, error) {
	var names []string
	for name, err := range s.enumerator.Enumerate(path) {
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Describe implements ContainerService
func (s *containerService) Describe(path string) (*ContainerInfo, error) {
	c, err := s.enumerator.Open(path)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	info := &ContainerInfo{
		Path:     c.Path(),
		Loader:   c.Loader(),
		DexCount: c.DexCount(),
	}
	for _, err := range c.Classes() {
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		info.ClassCount++
	}
	return info, nil
}
