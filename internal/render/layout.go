// Package render turns a record's scalar metadata and walked rich
// fields into a page title and body fragment.
package render

// Layout says how a record type is presented: which fields form the
// title, how scalar metadata is grouped, and the order of rich fields
// in the body. It is an explicit value handed to the pipeline, not
// process-wide state.
type Layout struct {
	Key         string    // layout name, for logs
	TitleFields []string  // joined with "_"; falls back to the source filename
	Sections    []Section // scalar metadata groups, in order
	RichFields  []string  // rich-field body order; empty means record order
	// IncludeExtras appends scalar fields not named by any Section in a
	// trailing table, so unexpected export fields stay visible.
	IncludeExtras bool
}

// Section is one group of scalar fields rendered as a key/value table.
type Section struct {
	Title  string
	Fields []string
}

// Default renders every scalar field in one table and rich fields in
// record order. Good enough for exports whose schema is not known up
// front; known record types configure their own layout.
func Default() Layout {
	return Layout{
		Key:           "default",
		IncludeExtras: true,
	}
}
