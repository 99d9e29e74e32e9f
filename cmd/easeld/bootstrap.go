package main

import (
	"easel/internal/provider"
	"easel/internal/provider/immich"
	"easel/internal/provider/s3bucket"
)

// buildRegistry wires every built-in image source into a fresh registry.
// Registration order fixes the order providers appear in API and CLI
// listings.
func buildRegistry() (*provider.Registry, error) {
	registry := provider.NewRegistry()
	factories := []provider.Factory{
		immich.New,
		s3bucket.New,
	}
	for _, factory := range factories {
		if err := registry.Register(factory); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
