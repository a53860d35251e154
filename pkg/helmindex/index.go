package helmindex

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/macropower/indexstamp/pkg/indexerrors"
)

const (
	DefaultChart = "ingress-azure"

	entriesKey    = "entries"
	versionKey    = "version"
	appVersionKey = "appVersion"
)

// Index is a parsed chart repository index.
type Index struct {
	doc *yaml.Node
}

// Record is a read-only view of one chart version under `entries`.
type Record struct {
	Version       string
	AppVersion    string
	HasAppVersion bool
}

// Parse parses the contents of an index file.
func Parse(data []byte) (*Index, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	doc := &yaml.Node{}
	if err := dec.Decode(doc); errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty document", indexerrors.ErrInvalidFormat)
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", indexerrors.ErrYAMLUnmarshal, err)
	}

	// Only the first document would be written back.
	if err := dec.Decode(&yaml.Node{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: multiple documents", indexerrors.ErrInvalidFormat)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", indexerrors.ErrInvalidFormat)
	}

	if root := resolve(doc.Content[0]); root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping (line %d)",
			indexerrors.ErrInvalidFormat, root.Line)
	}

	return &Index{doc: doc}, nil
}

// Records returns the records of chart in file order.
func (i *Index) Records(chart string) ([]Record, error) {
	seq, err := i.chartVersions(chart)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(seq.Content))

	for n, item := range seq.Content {
		item = resolve(item)
		if item.Kind != yaml.MappingNode {
			return nil, recordError(chart, n, item, "is not a mapping")
		}

		r := Record{}
		if v := lookup(item, versionKey); v != nil {
			r.Version = v.Value
		}

		if v := lookup(item, appVersionKey); v != nil {
			r.AppVersion = v.Value
			r.HasAppVersion = true
		}

		records = append(records, r)
	}

	return records, nil
}

// SetAppVersion sets appVersion to tag on the first record of chart whose
// version equals tag, and returns that record's position. Records after the
// first match are not inspected. When nothing matches, the returned bool is
// false and the document is unchanged.
func (i *Index) SetAppVersion(chart, tag string) (int, bool, error) {
	seq, err := i.chartVersions(chart)
	if err != nil {
		return -1, false, err
	}

	for n, item := range seq.Content {
		item = resolve(item)
		if item.Kind != yaml.MappingNode {
			return -1, false, recordError(chart, n, item, "is not a mapping")
		}

		v := lookup(item, versionKey)
		if v == nil {
			return -1, false, recordError(chart, n, item, "has no version")
		}

		if v.Kind != yaml.ScalarNode || v.Value != tag {
			continue
		}

		setScalar(item, appVersionKey, tag)

		return n, true, nil
	}

	return -1, false, nil
}

// Bytes serializes the whole document.
func (i *Index) Bytes() ([]byte, error) {
	buf := &bytes.Buffer{}

	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)

	if err := enc.Encode(i.doc); err != nil {
		return nil, fmt.Errorf("%w: %w", indexerrors.ErrYAMLMarshal, err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", indexerrors.ErrYAMLMarshal, err)
	}

	return buf.Bytes(), nil
}

func (i *Index) chartVersions(chart string) (*yaml.Node, error) {
	root := resolve(i.doc.Content[0])

	entries := lookup(root, entriesKey)
	if entries == nil {
		return nil, fmt.Errorf("%w: missing %q", indexerrors.ErrInvalidFormat, entriesKey)
	}

	if entries.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %q is not a mapping (line %d)",
			indexerrors.ErrInvalidFormat, entriesKey, entries.Line)
	}

	seq := lookup(entries, chart)
	if seq == nil {
		return nil, fmt.Errorf("%w: %q", ErrChartNotFound, chart)
	}

	if seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: %s.%s is not a sequence (line %d)",
			indexerrors.ErrInvalidFormat, entriesKey, chart, seq.Line)
	}

	return seq, nil
}

func recordError(chart string, n int, item *yaml.Node, msg string) error {
	return fmt.Errorf("%w: %s.%s[%d] %s (line %d)",
		indexerrors.ErrInvalidFormat, entriesKey, chart, n, msg, item.Line)
}

// lookup returns the value of key in mapping m, or nil. Keys set directly on
// m win over keys merged in with `<<`; merged mappings are searched in order.
func lookup(m *yaml.Node, key string) *yaml.Node {
	var merges []*yaml.Node

	for n := 0; n+1 < len(m.Content); n += 2 {
		k := m.Content[n]
		if k.Value == key && !isMergeKey(k) {
			return resolve(m.Content[n+1])
		}

		if isMergeKey(k) {
			merges = append(merges, resolve(m.Content[n+1]))
		}
	}

	for _, v := range merges {
		srcs := []*yaml.Node{v}
		if v.Kind == yaml.SequenceNode {
			srcs = v.Content
		}

		for _, src := range srcs {
			if src = resolve(src); src.Kind != yaml.MappingNode {
				continue
			}

			if found := lookup(src, key); found != nil {
				return found
			}
		}
	}

	return nil
}

func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.Value == "<<" && (k.Tag == "!!merge" || k.Tag == "")
}

// setScalar sets key in mapping m to the string value, adding the key when
// absent. An existing scalar keeps its quoting style.
func setScalar(m *yaml.Node, key, value string) {
	for n := 0; n+1 < len(m.Content); n += 2 {
		if m.Content[n].Value != key {
			continue
		}

		v := m.Content[n+1]
		if v.Kind != yaml.ScalarNode {
			m.Content[n+1] = strNode(value)

			return
		}

		v.Tag = "!!str"
		v.Value = value
		v.Style &^= yaml.TaggedStyle

		return
	}

	m.Content = append(m.Content, strNode(key), strNode(value))
}

func strNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	return n
}
