package testutil

// WithStandardModules adds four modules:
//
//	Blog  active, order 2, requires shop + missing
//	Shop  active, order 1
//	Admin active, order 1, alias "dashboard"
//	Legacy inactive, order 0
func (b *Builder) WithStandardModules() *Builder {
	return b.
		WithModule("Blog", Active(), Order(2), Description("Posts and comments"),
			Requires("shop", "missing"), Keywords("content", "posts")).
		WithModule("Shop", Active(), Order(1), Description("Catalog and checkout")).
		WithModule("Admin", Active(), Order(1), Alias("dashboard")).
		WithModule("Legacy", Inactive(), Order(0))
}
