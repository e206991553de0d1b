package query

// Merge combines two partially-specified query fragments into one.
//
// Rules, in the order they matter:
//   - at most one distinct source may appear across both fragments; two
//     different sources poison the result with *AmbiguousSourceError
//   - Where and Having predicates are combined by AND: composing two
//     narrowing fragments can only narrow further, never broaden
//   - Limit, Offset and Distinct are last-write-wins (b overrides a)
//   - OrderBy, GroupBy, Join, Preload and Select entries are appended in
//     fragment order
//
// Merge is associative, and the zero Query is its identity.
func Merge(a, b Query) Query {
	out := Query{}

	switch {
	case a.err != nil:
		out.err = a.err
	case b.err != nil:
		out.err = b.err
	}

	switch {
	case a.source == nil:
		out.source = b.source
	case b.source == nil || a.source == b.source:
		out.source = a.source
	default:
		if out.err == nil {
			out.err = &AmbiguousSourceError{First: a.source.Name(), Second: b.source.Name()}
		}
		out.source = a.source
	}

	out.wheres = concatExprs(a.wheres, b.wheres)
	out.havings = concatExprs(a.havings, b.havings)
	out.orders = append(append([]OrderTerm(nil), a.orders...), b.orders...)
	out.groups = append(append([]string(nil), a.groups...), b.groups...)
	out.joins = append(append([]Join(nil), a.joins...), b.joins...)
	out.selects = append(append([]string(nil), a.selects...), b.selects...)
	out.preloads = append(append([]string(nil), a.preloads...), b.preloads...)

	out.limit = lastWins(a.limit, b.limit)
	out.offset = lastWins(a.offset, b.offset)
	out.distinct = lastWinsBool(a.distinct, b.distinct)

	// A fragment built without a source could not resolve its fields at
	// build time; do it now that the merged source is known.
	if out.err == nil && out.source != nil {
		for _, e := range concatExprs(out.wheres, out.havings) {
			if err := validateExpr(out.source, e); err != nil {
				out.err = err
				break
			}
		}
	}

	return out
}

func concatExprs(a, b []Expr) []Expr {
	return append(append([]Expr(nil), a...), b...)
}

func lastWins(a, b *int) *int {
	if b != nil {
		return b
	}
	return a
}

func lastWinsBool(a, b *bool) *bool {
	if b != nil {
		return b
	}
	return a
}
