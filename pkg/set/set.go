// Package set は重複のない要素集合を提供する。
// テーマフィルタの「選択中テーマ」や各説教のタグ集合など、
// 順序を持たないユニークな文字列集合の表現に使用する。
package set

// Set はcomparableな要素の集合。順序は保証しない。
type Set[T comparable] map[T]struct{}

// New は指定された要素を含む新しい集合を生成する。
func New[T comparable](elems ...T) Set[T] {
	s := make(Set[T], len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

// Add は要素を集合に追加する。
func (s Set[T]) Add(e T) {
	s[e] = struct{}{}
}

// Remove は要素を集合から削除する。存在しない場合は何もしない。
func (s Set[T]) Remove(e T) {
	delete(s, e)
}

// Has は要素が集合に含まれるかどうかを返す。
func (s Set[T]) Has(e T) bool {
	_, ok := s[e]
	return ok
}

// Len は集合の要素数を返す。
func (s Set[T]) Len() int {
	return len(s)
}

// IsEmpty は集合が空かどうかを返す。nil集合は空として扱う。
func (s Set[T]) IsEmpty() bool {
	return len(s) == 0
}

// Union は2つの集合の和集合を新しい集合として返す。
func (s Set[T]) Union(other Set[T]) Set[T] {
	result := make(Set[T], len(s)+len(other))
	for e := range s {
		result[e] = struct{}{}
	}
	for e := range other {
		result[e] = struct{}{}
	}
	return result
}

// Intersect は2つの集合の積集合を新しい集合として返す。
func (s Set[T]) Intersect(other Set[T]) Set[T] {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	result := make(Set[T])
	for e := range small {
		if large.Has(e) {
			result[e] = struct{}{}
		}
	}
	return result
}

// Intersects は2つの集合に共通の要素が1つでも存在するかどうかを返す。
func (s Set[T]) Intersects(other Set[T]) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for e := range small {
		if large.Has(e) {
			return true
		}
	}
	return false
}

// Members は集合の要素をスライスとして返す。順序は不定。
// 決定的な順序が必要な場合は呼び出し側でソートすること。
func (s Set[T]) Members() []T {
	members := make([]T, 0, len(s))
	for e := range s {
		members = append(members, e)
	}
	return members
}

// Clone は集合の複製を返す。
func (s Set[T]) Clone() Set[T] {
	result := make(Set[T], len(s))
	for e := range s {
		result[e] = struct{}{}
	}
	return result
}
