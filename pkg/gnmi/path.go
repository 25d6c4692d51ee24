/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gnmi

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	gpb "github.com/openconfig/gnmi/proto/gnmi"
)

// PathTarget is set on every encoded path.
const PathTarget = "openconfig"

// EncodePath translates a slash separated resource path such as
//
//	openconfig-interfaces:interfaces/interface[name=Ethernet0]/state
//
// into a gNMI path. Empty segments and the restconf/data envelope are
// dropped. Filter values are percent-decoded, and a '/' inside brackets
// belongs to the key value rather than splitting the path.
func EncodePath(path string) (*gpb.Path, error) {
	segments, err := splitSegments(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}

	out := &gpb.Path{Target: PathTarget}

	for _, seg := range segments {
		if seg == "" || seg == "restconf" || seg == "data" {
			continue
		}

		elem, err := parseElem(seg)
		if err != nil {
			return nil, err
		}

		out.Elem = append(out.Elem, elem)
	}

	return out, nil
}

// MustEncodePath is EncodePath for package level constants.
func MustEncodePath(path string) *gpb.Path {
	p, err := EncodePath(path)
	if err != nil {
		panic(err)
	}

	return p
}

// EncodePaths encodes each path in order and stops at the first failure.
func EncodePaths(paths ...string) ([]*gpb.Path, error) {
	out := make([]*gpb.Path, 0, len(paths))

	for _, p := range paths {
		encoded, err := EncodePath(p)
		if err != nil {
			return nil, err
		}

		out = append(out, encoded)
	}

	return out, nil
}

// Filter renders name[k1=v1,k2=v2] from alternating key/value pairs,
// percent-encoding each value. A trailing unpaired key is ignored.
func Filter(name string, pairs ...string) string {
	var b strings.Builder

	b.WriteString(name)

	if len(pairs) < 2 {
		return b.String()
	}

	b.WriteByte('[')

	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(pairs[i])
		b.WriteByte('=')
		b.WriteString(url.PathEscape(pairs[i+1]))
	}

	b.WriteByte(']')

	return b.String()
}

// PathString renders a path back into the human form. Used for logging.
func PathString(p *gpb.Path) string {
	if p == nil {
		return ""
	}

	var b strings.Builder

	for i, e := range p.GetElem() {
		if i > 0 {
			b.WriteByte('/')
		}

		b.WriteString(e.GetName())

		if len(e.GetKey()) == 0 {
			continue
		}

		b.WriteByte('[')

		for j, k := range sortedKeys(e.GetKey()) {
			if j > 0 {
				b.WriteByte(',')
			}

			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(url.PathEscape(e.GetKey()[k]))
		}

		b.WriteByte(']')
	}

	return b.String()
}

func splitSegments(path string) ([]string, error) {
	var (
		segments []string
		depth    int
		start    int
	)

	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unexpected ']' in %q", ErrInvalidPathSegment, path)
			}
		case '/':
			if depth == 0 {
				segments = append(segments, path[start:i])
				start = i + 1
			}
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("%w: unterminated '[' in %q", ErrInvalidPathSegment, path)
	}

	return append(segments, path[start:]), nil
}

func parseElem(seg string) (*gpb.PathElem, error) {
	open := strings.IndexByte(seg, '[')
	closing := strings.IndexByte(seg, ']')

	switch {
	case open < 0 && closing < 0:
		return &gpb.PathElem{Name: seg}, nil
	case open < 0 || closing < 0:
		return nil, fmt.Errorf("%w: %q must open with '[' and close with ']'", ErrInvalidPathSegment, seg)
	case open == 0:
		return nil, fmt.Errorf("%w: %q has no element name", ErrInvalidPathSegment, seg)
	}

	elem := &gpb.PathElem{Name: seg[:open], Key: make(map[string]string)}

	rest := seg[open:]
	for rest != "" {
		if rest[0] != '[' {
			return nil, fmt.Errorf("%w: unexpected %q after filter in %q", ErrInvalidPathSegment, rest, seg)
		}

		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated filter in %q", ErrInvalidPathSegment, seg)
		}

		if err := parseFilter(rest[1:end], elem.Key); err != nil {
			return nil, fmt.Errorf("segment %q: %w", seg, err)
		}

		rest = rest[end+1:]
	}

	return elem, nil
}

func parseFilter(filter string, keys map[string]string) error {
	if strings.TrimSpace(filter) == "" {
		return fmt.Errorf("%w: empty filter", ErrInvalidFilterEntry)
	}

	for _, entry := range strings.Split(filter, ",") {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("%w: %q is not key=value", ErrInvalidFilterEntry, entry)
		}

		k = strings.TrimSpace(k)
		if k == "" {
			return fmt.Errorf("%w: %q has an empty key", ErrInvalidFilterEntry, entry)
		}

		if _, dup := keys[k]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidFilterEntry, k)
		}

		decoded, err := url.PathUnescape(v)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidFilterEntry, entry, err)
		}

		keys[k] = decoded
	}

	return nil
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
