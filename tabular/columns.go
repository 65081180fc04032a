package tabular

// Column is a required column and the header spellings accepted for it.
// Name itself always matches.
type Column struct {
	Name    string
	Aliases []string
}

// Resolve maps every column name to its index in t. The first column that
// cannot be found, in argument order, is reported as a MissingColumnError.
func Resolve(t Table, cols ...Column) (map[string]int, error) {
	idx := make(map[string]int, len(cols))
	for _, c := range cols {
		i := t.Index(append([]string{c.Name}, c.Aliases...)...)
		if i < 0 {
			return nil, &MissingColumnError{Table: t.Name, Column: c.Name}
		}
		idx[c.Name] = i
	}
	return idx, nil
}
