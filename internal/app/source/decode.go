package source

import (
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/osa030/releasebox/internal/domain/release"
)

// Format is a descriptor encoding.
type Format string

// Supported formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// releasesKey wraps a list of descriptors in a single document.
// TOML has no top-level arrays, so it needs this form for multi-release files.
const releasesKey = "releases"

// DetectFormat picks a format from the location extension, then the
// Content-Type, falling back to JSON.
func DetectFormat(location, contentType string) Format {
	loc := location
	if i := strings.IndexAny(loc, "?#"); i >= 0 {
		loc = loc[:i]
	}
	switch strings.ToLower(path.Ext(loc)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	}

	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			switch {
			case strings.Contains(mediaType, "yaml"):
				return FormatYAML
			case strings.Contains(mediaType, "toml"):
				return FormatTOML
			}
		}
	}

	return FormatJSON
}

// Decode parses a descriptor document. A document holds one descriptor
// object, a list of them, or an object with a "releases" list.
// Only a document that cannot be parsed is an error, marked
// release.ErrInvalidRelease. Malformed entries come back with DecodeErr set.
func Decode(data []byte, format Format, origin string) ([]release.Descriptor, error) {
	var raw any
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatTOML:
		var m map[string]any
		err = toml.Unmarshal(data, &m)
		raw = m
	case FormatJSON, "":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, errors.Newf("unsupported descriptor format: %s", format)
	}
	if err != nil {
		return nil, invalid(errors.Wrapf(err, "failed to parse %s", format), origin)
	}

	items, err := documentItems(raw)
	if err != nil {
		return nil, invalid(err, origin)
	}

	// An entry that cannot be mapped is kept with DecodeErr set, so that it is
	// rejected on its own by release.Normalize and its siblings survive.
	descriptors := make([]release.Descriptor, 0, len(items))
	for i, item := range items {
		itemOrigin := origin
		if len(items) > 1 {
			itemOrigin = fmt.Sprintf("%s#%d", origin, i)
		}

		var d release.Descriptor
		if err := decodeDescriptor(canonicalKeys(item), &d); err != nil {
			d = release.Descriptor{DecodeErr: errors.Wrapf(err, "descriptor %d", i)}
		}
		d.Origin = itemOrigin
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func documentItems(raw any) ([]any, error) {
	switch v := raw.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if list, ok := v[releasesKey]; ok {
			items, ok := list.([]any)
			if !ok {
				return nil, errors.Newf("%q must be a list", releasesKey)
			}
			return items, nil
		}
		return []any{v}, nil
	case nil:
		return nil, errors.New("empty document")
	default:
		return nil, errors.Newf("unexpected document type %T", raw)
	}
}

// Alternate key names accepted for descriptor and track fields.
var (
	descriptorAliases = map[string]string{"coverImageRef": "coverUrl", "kind": "type"}
	trackAliases      = map[string]string{"audioRef": "audioUrl"}
)

// canonicalKeys renames alias keys in place. A canonical key wins over its alias.
func canonicalKeys(item any) any {
	m, ok := item.(map[string]any)
	if !ok {
		return item
	}
	renameKeys(m, descriptorAliases)
	if tracks, ok := m["tracks"].([]any); ok {
		for _, t := range tracks {
			if tm, ok := t.(map[string]any); ok {
				renameKeys(tm, trackAliases)
			}
		}
	}
	return m
}

func renameKeys(m map[string]any, aliases map[string]string) {
	for alias, key := range aliases {
		v, ok := m[alias]
		if !ok {
			continue
		}
		delete(m, alias)
		if _, exists := m[key]; !exists {
			m[key] = v
		}
	}
}

func decodeDescriptor(input any, out *release.Descriptor) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringifyHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// stringifyHook turns decoded timestamps (YAML/TOML dates) back into strings
// so that release dates go through the same parser regardless of format.
func stringifyHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return data, nil
}

func invalid(err error, origin string) error {
	return errors.Mark(errors.Wrapf(err, "descriptor %q", origin), release.ErrInvalidRelease)
}
