// Package formula encodes resolved rolls into the compact string stored on
// campaign events, e.g. "20:14,7;6:3", and decodes it back.
package formula

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/questlog/backend/internal/dice"
)

// ErrFormat marks a malformed formula string. Render paths treat it as "no
// breakdown available" rather than failing the whole log.
var ErrFormat = errors.New("malformed formula")

// Encode writes every nonempty group as "<type>:<v1>,...,<vn>" in canonical
// descending type order, joined by ";". Empty groups are dropped on purpose:
// the decode side reconstructs them. Repeated groups of one type merge in
// input order.
func Encode(groups []dice.Group) string {
	byType := make(map[int][]int, len(groups))
	for _, g := range groups {
		if len(g.Results) > 0 {
			byType[g.Type] = append(byType[g.Type], g.Results...)
		}
	}

	var b strings.Builder
	for _, t := range dice.TypeOrder {
		results, ok := byType[t]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Itoa(t))
		b.WriteByte(':')
		for i, v := range results {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(v))
		}
	}
	return b.String()
}

// Decode parses text into the canonical six-group shape, one group per type
// in descending order, empty where the text carries no values. Aggregates
// are recomputed the same way the dice engine computes them.
func Decode(text string) ([]dice.Group, error) {
	byType := make(map[int][]int)
	if text != "" {
		for _, segment := range strings.Split(text, ";") {
			dieType, results, err := parseSegment(segment)
			if err != nil {
				return nil, err
			}
			byType[dieType] = results
		}
	}

	groups := make([]dice.Group, 0, len(dice.TypeOrder))
	for _, t := range dice.TypeOrder {
		groups = append(groups, dice.NewGroup(t, byType[t]))
	}
	return groups, nil
}

func parseSegment(segment string) (int, []int, error) {
	head, tail, ok := strings.Cut(segment, ":")
	if !ok {
		return 0, nil, fmt.Errorf("%w: segment %q has no ':'", ErrFormat, segment)
	}
	dieType, err := strconv.Atoi(head)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: die type %q", ErrFormat, head)
	}
	if !dice.Supported(dieType) {
		return 0, nil, fmt.Errorf("%w: die type %d", ErrFormat, dieType)
	}

	raw := strings.Split(tail, ",")
	results := make([]int, 0, len(raw))
	for _, s := range raw {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: value %q", ErrFormat, s)
		}
		results = append(results, v)
	}
	return dieType, results, nil
}
