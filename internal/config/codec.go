package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// codec converts between documents and Go values.
type codec interface {
	marshal(v any) ([]byte, error)
	unmarshal(data []byte, v any) error
}

type tomlCodec struct{}

func (tomlCodec) marshal(v any) ([]byte, error)      { return toml.Marshal(v) }
func (tomlCodec) unmarshal(data []byte, v any) error { return toml.Unmarshal(data, v) }

type yamlCodec struct{}

func (yamlCodec) marshal(v any) ([]byte, error)      { return yaml.Marshal(v) }
func (yamlCodec) unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// codecFor picks the codec from the file extension. TOML is the default.
func codecFor(path string) codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlCodec{}
	default:
		return tomlCodec{}
	}
}

// decode parses data into a Config. Fields absent from the document keep
// their default values; unknown fields at any depth land in Extra.
func decode(path string, data []byte) (*Config, error) {
	c := codecFor(path)

	var raw map[string]any
	if err := c.unmarshal(data, &raw); err != nil {
		return nil, parseError(path, err)
	}

	cfg := Default()
	if err := c.unmarshal(data, cfg); err != nil {
		return nil, parseError(path, err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %s has version %d, want %d", ErrVersionMismatch, path, cfg.Version, CurrentVersion)
	}

	if extra := unknownFields(raw, schema); len(extra) > 0 {
		cfg.Extra = extra
	}

	return cfg, nil
}

// encode renders cfg, merging Extra back in beside the known fields.
func encode(path string, cfg *Config) ([]byte, error) {
	c := codecFor(path)

	data, err := c.marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if len(cfg.Extra) == 0 {
		return data, nil
	}

	var doc map[string]any
	if err := c.unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	mergeMissing(doc, cfg.Extra)

	data, err = c.marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// unknownFields returns the parts of raw not described by known.
func unknownFields(raw, known map[string]any) map[string]any {
	var out map[string]any
	for k, v := range raw {
		sub, isKnown := known[k]
		if !isKnown {
			if out == nil {
				out = make(map[string]any)
			}
			out[k] = v
			continue
		}
		subSchema, isTable := sub.(map[string]any)
		table, isMap := v.(map[string]any)
		if !isTable || !isMap {
			continue
		}
		if rest := unknownFields(table, subSchema); len(rest) > 0 {
			if out == nil {
				out = make(map[string]any)
			}
			out[k] = rest
		}
	}
	return out
}

// mergeMissing copies keys of extra into doc where doc has none, descending
// into tables present in both.
func mergeMissing(doc, extra map[string]any) {
	for k, v := range extra {
		existing, ok := doc[k]
		if !ok {
			doc[k] = v
			continue
		}
		dst, dstIsMap := existing.(map[string]any)
		src, srcIsMap := v.(map[string]any)
		if dstIsMap && srcIsMap {
			mergeMissing(dst, src)
		}
	}
}

func parseError(path string, err error) *ParseError {
	pe := &ParseError{Path: path, Message: err.Error(), Err: err}

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
	}
	return pe
}
