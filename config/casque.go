package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/layer-3/casque/core"
)

// Directives recognised in casque.conf
const (
	directiveComment = "#"
	directiveSecret  = "CASQUE_SECRET"
	directiveAddress = "CASQUE_ADDRESS"
	directivePort    = "CASQUE_PORT"
	directiveLocal   = "LOCAL_PORT"
)

// Casque holds the settings for talking to the CASQUE SNR server.
// It is built once at startup and never modified afterwards.
type Casque struct {
	Secret    []byte // Shared RADIUS secret
	Address   string // Hostname or IP of the CASQUE SNR server
	Port      int    // RADIUS port of the CASQUE SNR server
	LocalPort int    // Local UDP port, 0 for an ephemeral one
}

// LoadFile reads casque.conf from path
func LoadFile(path string) (*Casque, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load %s: %w", core.ErrConfiguration, path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads casque.conf directives from r. Lines starting with # are ignored, as are
// lines matching no directive.
func Parse(r io.Reader) (*Casque, error) {
	cfg := &Casque{}

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		if err := cfg.parseLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", core.ErrConfiguration, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Casque) parseLine(line string) error {
	var err error
	switch {
	case strings.HasPrefix(line, directiveComment):
	case strings.HasPrefix(line, directiveSecret):
		c.Secret = []byte(value(line, directiveSecret))
	case strings.HasPrefix(line, directiveAddress):
		c.Address = value(line, directiveAddress)
	case strings.HasPrefix(line, directivePort):
		c.Port, err = strconv.Atoi(value(line, directivePort))
	case strings.HasPrefix(line, directiveLocal):
		c.LocalPort, err = strconv.Atoi(value(line, directiveLocal))
	}
	return err
}

func value(line, directive string) string {
	return strings.TrimSpace(line[len(directive):])
}

// Validate checks that the settings can reach a server
func (c *Casque) Validate() error {
	if len(c.Secret) == 0 {
		return fmt.Errorf("%w: %s is required", core.ErrConfiguration, directiveSecret)
	}
	if c.Address == "" {
		return fmt.Errorf("%w: %s is required", core.ErrConfiguration, directiveAddress)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %s out of range: %d", core.ErrConfiguration, directivePort, c.Port)
	}
	if c.LocalPort < 0 || c.LocalPort > 65535 {
		return fmt.Errorf("%w: %s out of range: %d", core.ErrConfiguration, directiveLocal, c.LocalPort)
	}
	return nil
}
