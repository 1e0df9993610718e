/*
Package dsl builds slide decks in Go code.

It is a fluent alternative to writing deck JSON by hand, useful for seeding stores,
fixtures in tests and generated decks.

Example usage:

	doc, err := dsl.New().
		Slide("1",
			dsl.Text("title", "Follow-up plan").At(40, 20).Width(600),
			dsl.Image("scan", "/presentation/p1/image/42").At(40, 120),
		).
		Slide("2",
			dsl.MutationTable("mutations").At(0, 0),
		).
		Build()
	if err != nil {
		return err
	}
	err = store.Save(ctx, "p1", doc)
*/
package dsl
