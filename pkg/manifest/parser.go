// Package manifest provides YAML manifest parsing for clerk command batches.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// ParseFile reads a YAML file at the given path and parses it into Commands.
// Multi-document YAML (separated by ---) is supported.
func ParseFile(path string) ([]*v1alpha1.Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file %s: %w", path, err)
	}
	return ParseBytes(data)
}

// ParseBytes parses raw YAML bytes into Commands. Validation problems in
// every document are reported together; no Command is returned if any
// document is invalid.
func ParseBytes(data []byte) ([]*v1alpha1.Command, error) {
	var (
		commands []*v1alpha1.Command
		errs     error
		seen     = make(map[string]int)
	)

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for doc := 1; ; doc++ {
		var node yaml.Node
		if err := decoder.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding yaml document %d: %w", doc, err)
		}
		if node.Kind == 0 {
			continue
		}

		var meta v1alpha1.TypeMeta
		if err := node.Decode(&meta); err != nil {
			return nil, fmt.Errorf("decoding type meta of document %d: %w", doc, err)
		}
		if meta.Kind == "" && meta.APIVersion == "" {
			continue
		}
		if meta.Kind != v1alpha1.KindCommand {
			errs = multierr.Append(errs, fmt.Errorf("document %d: unknown resource kind: %q", doc, meta.Kind))
			continue
		}

		var c v1alpha1.Command
		if err := node.Decode(&c); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("document %d: decoding Command: %w", doc, err))
			continue
		}
		if c.APIVersion == "" {
			c.APIVersion = v1alpha1.APIVersion
		}

		if err := Validate(&c); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("document %d: %w", doc, err))
		}
		if name := c.Metadata.Name; name != "" {
			if first, dup := seen[name]; dup {
				errs = multierr.Append(errs, fmt.Errorf("document %d: duplicate name %q (first used in document %d)", doc, name, first))
			} else {
				seen[name] = doc
			}
		}
		commands = append(commands, &c)
	}

	if errs != nil {
		return nil, errs
	}
	return commands, nil
}

// Validate checks the required fields of a Command.
func Validate(c *v1alpha1.Command) error {
	var errs error
	if c.APIVersion != v1alpha1.APIVersion {
		errs = multierr.Append(errs, fmt.Errorf("unsupported apiVersion %q", c.APIVersion))
	}
	if c.Metadata.Name == "" {
		errs = multierr.Append(errs, errors.New("Command name must not be empty"))
	}

	s := c.Spec
	switch {
	case s.Text == "" && s.Intent == "":
		errs = multierr.Append(errs, errors.New("spec needs either text or intent"))
	case s.Text != "" && s.Intent != "":
		errs = multierr.Append(errs, errors.New("spec must not set both text and intent"))
	case s.Intent != "" && !s.Intent.Valid():
		errs = multierr.Append(errs, fmt.Errorf("unknown intent %q", s.Intent))
	case s.Intent == v1alpha1.IntentUnknown:
		errs = multierr.Append(errs, errors.New("free-form requests go in spec.text, not intent Unknown"))
	}
	if !s.SearchType.Valid() {
		errs = multierr.Append(errs, fmt.Errorf("unknown searchType %q", s.SearchType))
	}
	return errs
}

// Structured converts a Command with an intent into a ParsedCommand. It
// returns false for free-text Commands, which must go through the resolver.
func Structured(c *v1alpha1.Command) (v1alpha1.ParsedCommand, bool) {
	s := c.Spec
	if s.Intent == "" {
		return v1alpha1.ParsedCommand{}, false
	}
	cmd := v1alpha1.ParsedCommand{
		Intent:     s.Intent,
		Content:    s.Content,
		SearchType: s.SearchType,
	}
	if s.Path != "" {
		cmd.Path = v1alpha1.StringPtr(s.Path)
	}
	if s.Query != "" {
		cmd.Query = v1alpha1.StringPtr(s.Query)
	}
	return cmd, true
}
