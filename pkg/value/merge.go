package value

// ListStrategy selects how Merge combines two lists.
type ListStrategy uint8

const (
	// ReplaceLists makes a source list replace the target list wholesale.
	ReplaceLists ListStrategy = iota
	// MergeLists merges lists index by index: element i of the source is
	// merged into element i of the target, extending the target as needed.
	// Earlier releases always behaved this way.
	MergeLists
)

func (s ListStrategy) String() string {
	if s == MergeLists {
		return "merge"
	}
	return "replace"
}

// Merge applies src on top of dst and returns the result.
//
// When both are maps, every key of src is applied to dst in place: collection
// values merge recursively into dst's entry (an empty container of the same
// kind is created when dst lacks the key or holds something else), scalars
// overwrite. An explicit null in src overwrites too. Two lists combine
// according to lists. A Null src leaves dst untouched; any other combination
// replaces dst with a copy of src.
//
// Merge never stores src's containers in dst, so the result shares nothing
// with src. Applying the same src twice yields the same tree as applying it
// once.
func Merge(dst, src Value, lists ListStrategy) Value {
	switch {
	case src.kind == Null:
		return dst
	case src.kind == Map && dst.kind == Map:
		mergeMap(dst.m, src.m, lists)
		return dst
	case src.kind == List && dst.kind == List && lists == MergeLists:
		dst.list = mergeList(dst.list, src.list, lists)
		return dst
	default:
		return src.Clone()
	}
}

func mergeMap(dst, src map[string]Value, lists ListStrategy) {
	for k, sv := range src {
		dst[k] = mergeEntry(dst[k], sv, lists)
	}
}

func mergeList(dst, src []Value, lists ListStrategy) []Value {
	for i, sv := range src {
		if i < len(dst) {
			dst[i] = mergeEntry(dst[i], sv, lists)
			continue
		}
		dst = append(dst, mergeEntry(Value{}, sv, lists))
	}
	return dst
}

// mergeEntry merges a single child. Unlike Merge, a Null source is a value
// here and overwrites the target.
func mergeEntry(cur, sv Value, lists ListStrategy) Value {
	switch sv.kind {
	case Map:
		if cur.kind != Map {
			cur = NewMap()
		}
		mergeMap(cur.m, sv.m, lists)
		return cur
	case List:
		if lists == ReplaceLists || cur.kind != List {
			return sv.Clone()
		}
		cur.list = mergeList(cur.list, sv.list, lists)
		return cur
	default:
		return sv
	}
}
