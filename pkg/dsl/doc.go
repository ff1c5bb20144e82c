/*
Package dsl provides a fluent builder for scripting weave graphs in Go.

The builder only records intent. Apply replays it through a Target, normally a
*weave.Workspace, so every operator and link goes through the same validation as any
other programmatic mutation.

	b := dsl.New()

	b.Add("scan").
		Type("ScanSource").
		Set("table", "orders").
		At(0, 0).
		To("filter")

	b.Add("filter").
		Type("Filter").
		Set("condition", "amount > 10").
		At(200, 0).
		Link("out0", "sink", "in0")

	b.Add("sink").Type("Sink").At(400, 0)

	if err := b.Apply(ws); err != nil {
		log.Fatal(err)
	}
*/
package dsl
