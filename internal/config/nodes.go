package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NodeConfig maps an egress node name to the proxy that reaches it.
type NodeConfig struct {
	Name  string `yaml:"name"`
	Proxy string `yaml:"proxy"`
}

type nodesFile struct {
	Nodes []NodeConfig `yaml:"nodes"`
}

// LoadNodes reads the egress node list. A missing file yields an empty map.
func LoadNodes(path string) (map[string]string, error) {
	nodes := make(map[string]string)
	if strings.TrimSpace(path) == "" {
		return nodes, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nodes, nil
		}
		return nil, fmt.Errorf("read nodes file %q: %w", path, err)
	}

	var f nodesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse nodes file %q: %w", path, err)
	}

	for i, n := range f.Nodes {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			return nil, fmt.Errorf("nodes[%d]: name is empty", i)
		}
		u, err := url.Parse(strings.TrimSpace(n.Proxy))
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("nodes[%d] %q: invalid proxy %q", i, name, n.Proxy)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("nodes[%d] %q: unsupported proxy scheme %q", i, name, u.Scheme)
		}
		if _, dup := nodes[name]; dup {
			return nil, fmt.Errorf("nodes[%d]: duplicate node %q", i, name)
		}
		nodes[name] = u.String()
	}
	return nodes, nil
}
