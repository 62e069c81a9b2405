package homepage

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
)

// FromServices groups descriptors by category. Groups appear in order of
// first occurrence and entries keep their input order, so a sorted snapshot
// yields a sorted file.
func FromServices(services []domain.ServiceDescriptor) ServicesConfig {
	config := ServicesConfig{}
	groups := make(map[string]int)

	for _, s := range services {
		category := s.Category
		if category == "" {
			category = domain.DefaultCategory
		}

		idx, ok := groups[category]
		if !ok {
			idx = len(config)
			groups[category] = idx
			config = append(config, map[string][]map[string]ServiceProps{category: {}})
		}

		entry := map[string]ServiceProps{
			s.Name: {
				Href:        s.URL,
				Icon:        s.IconURL,
				Description: s.Description,
			},
		}
		config[idx][category] = append(config[idx][category], entry)
	}

	return config
}

// Marshal renders descriptors as a Homepage services.yaml document.
func Marshal(services []domain.ServiceDescriptor) ([]byte, error) {
	data, err := yaml.Marshal(FromServices(services))
	if err != nil {
		return nil, fmt.Errorf("failed to render services yaml: %w", err)
	}
	return data, nil
}
