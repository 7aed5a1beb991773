// Package ordering вычисляет позиции вещей внутри категории.
//
// Позиции образуют плотную последовательность 1..N по всей категории,
// независимо от флага продажи.
package ordering

import (
	"errors"
	"fmt"
)

// ErrNotPermutation возвращается, если список идентификаторов не является
// перестановкой вещей категории или одной из ее групп.
var ErrNotPermutation = errors.New("ids are not a permutation of the category items or of its sold or current items")

// Assignment задает новую позицию для вещи.
type Assignment[K comparable] struct {
	ID       K
	Position int
}

// Next возвращает позицию для новой вещи в конце категории.
func Next(maxPosition int) int {
	if maxPosition < 0 {
		maxPosition = 0
	}
	return maxPosition + 1
}

// Renumber назначает позиции 1..N в порядке следования ids.
func Renumber[K comparable](ids []K) []Assignment[K] {
	out := make([]Assignment[K], len(ids))
	for i, id := range ids {
		out[i] = Assignment[K]{ID: id, Position: i + 1}
	}
	return out
}

// Permute назначает позиции по списку requested. Допустимы два вида списка:
// перестановка всех вещей current либо перестановка ровно одной группы
// (вещи с одинаковым group(id)). Во втором случае вещи группы занимают
// позиции, которые группа уже занимала, остальные вещи остаются на местах.
// current упорядочен по позиции. group == nil разрешает только полный список.
func Permute[K comparable](current, requested []K, group func(K) bool) ([]Assignment[K], error) {
	known := make(map[K]struct{}, len(current))
	for _, id := range current {
		known[id] = struct{}{}
	}

	seen := make(map[K]struct{}, len(requested))
	for _, id := range requested {
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("%w: unknown id %v", ErrNotPermutation, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %v", ErrNotPermutation, id)
		}
		seen[id] = struct{}{}
	}

	if len(requested) == len(current) {
		return Renumber(requested), nil
	}
	if group == nil || len(requested) == 0 {
		return nil, fmt.Errorf("%w: got %d ids, category has %d items", ErrNotPermutation, len(requested), len(current))
	}

	g := group(requested[0])
	size := 0
	for _, id := range current {
		if group(id) == g {
			size++
		}
	}
	for _, id := range requested {
		if group(id) != g {
			return nil, fmt.Errorf("%w: ids mix sold and current items", ErrNotPermutation)
		}
	}
	if len(requested) != size {
		return nil, fmt.Errorf("%w: got %d ids, group has %d items", ErrNotPermutation, len(requested), size)
	}

	merged := make([]K, len(current))
	next := 0
	for i, id := range current {
		if group(id) == g {
			merged[i] = requested[next]
			next++
			continue
		}
		merged[i] = id
	}
	return Renumber(merged), nil
}

// Changed оставляет только назначения, меняющие текущую позицию.
func Changed[K comparable](positions map[K]int, assignments []Assignment[K]) []Assignment[K] {
	var out []Assignment[K]
	for _, a := range assignments {
		if pos, ok := positions[a.ID]; ok && pos == a.Position {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Dense сообщает, образуют ли позиции перестановку 1..N.
func Dense(positions []int) bool {
	seen := make([]bool, len(positions)+1)
	for _, p := range positions {
		if p < 1 || p > len(positions) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}
